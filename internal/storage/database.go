package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"ollamahub/internal/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the configured database for the given driver type.
func Open(dbType string, cfg *config.Config) (*sql.DB, error) {
	dbCfg, ok := cfg.Databases[dbType]
	if !ok {
		return nil, fmt.Errorf("database config for %s not found", dbType)
	}

	var (
		db  *sql.DB
		err error
	)

	switch strings.ToLower(dbType) {
	case "sqlite", "sqlite3":
		if dbCfg.DSN == "" {
			return nil, fmt.Errorf("sqlite dsn must be provided")
		}
		db, err = sql.Open("sqlite3", dbCfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			dbCfg.Username,
			dbCfg.Password,
			dbCfg.Host,
			dbCfg.Port,
			dbCfg.DBName,
			dbCfg.Params,
		)
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", dbType)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate ensures the required tables are present.
func Migrate(db *sql.DB, driver string) error {
	var stmts []string
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				username TEXT NOT NULL UNIQUE,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				created_at DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS user_tokens (
				token TEXT PRIMARY KEY,
				user_id INTEGER NOT NULL,
				created_at DATETIME NOT NULL,
				expires_at DATETIME NOT NULL,
				FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_user_tokens_user ON user_tokens(user_id)`,
			`CREATE TABLE IF NOT EXISTS chat_chat (
				chat_id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				user_id INTEGER NOT NULL,
				status TEXT NOT NULL,
				lmm_type TEXT NOT NULL,
				share_token TEXT NOT NULL UNIQUE,
				created_time DATETIME NOT NULL,
				FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_chat_user ON chat_chat(user_id)`,
			`CREATE TABLE IF NOT EXISTS chat_messages (
				message_id INTEGER PRIMARY KEY AUTOINCREMENT,
				chat_id INTEGER NOT NULL,
				user_id INTEGER NOT NULL,
				message_type TEXT NOT NULL,
				message_content TEXT NOT NULL,
				created_time DATETIME NOT NULL,
				FOREIGN KEY(chat_id) REFERENCES chat_chat(chat_id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_messages_chat ON chat_messages(chat_id)`,
			`CREATE TABLE IF NOT EXISTS chat_files (
				file_id INTEGER PRIMARY KEY AUTOINCREMENT,
				file_name TEXT NOT NULL,
				cloud_id TEXT NOT NULL,
				user_id INTEGER NOT NULL,
				chat_id INTEGER NOT NULL,
				message_id INTEGER,
				content_type TEXT NOT NULL,
				file_size INTEGER NOT NULL,
				upload_date DATETIME NOT NULL,
				extracted_text TEXT,
				text_extraction_successful INTEGER NOT NULL DEFAULT 0,
				FOREIGN KEY(chat_id) REFERENCES chat_chat(chat_id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_files_chat ON chat_files(chat_id)`,
			`CREATE INDEX IF NOT EXISTS idx_files_message ON chat_files(message_id)`,
			`CREATE TABLE IF NOT EXISTS chat_vote (
				vote_id INTEGER PRIMARY KEY AUTOINCREMENT,
				chat_id INTEGER NOT NULL,
				message_id INTEGER,
				vote_int INTEGER NOT NULL,
				comment TEXT,
				created_time DATETIME NOT NULL,
				FOREIGN KEY(chat_id) REFERENCES chat_chat(chat_id) ON DELETE CASCADE
			)`,
			`CREATE TABLE IF NOT EXISTS chat_servers (
				server_id INTEGER PRIMARY KEY AUTOINCREMENT,
				endpoint_url TEXT NOT NULL,
				endpoint_port INTEGER NOT NULL,
				status TEXT NOT NULL,
				token TEXT
			)`,
		}
	case "mysql":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				username VARCHAR(255) NOT NULL UNIQUE,
				email VARCHAR(255) NOT NULL UNIQUE,
				password_hash VARCHAR(255) NOT NULL,
				created_at DATETIME NOT NULL,
				PRIMARY KEY (id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS user_tokens (
				token VARCHAR(255) NOT NULL PRIMARY KEY,
				user_id BIGINT UNSIGNED NOT NULL,
				created_at DATETIME NOT NULL,
				expires_at DATETIME NOT NULL,
				INDEX idx_user_tokens_user (user_id),
				CONSTRAINT fk_user_tokens_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS chat_chat (
				chat_id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				title VARCHAR(255) NOT NULL,
				user_id BIGINT UNSIGNED NOT NULL,
				status VARCHAR(50) NOT NULL,
				lmm_type VARCHAR(100) NOT NULL,
				share_token VARCHAR(255) NOT NULL UNIQUE,
				created_time DATETIME NOT NULL,
				PRIMARY KEY (chat_id),
				INDEX idx_chat_user (user_id),
				CONSTRAINT fk_chat_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS chat_messages (
				message_id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				chat_id BIGINT UNSIGNED NOT NULL,
				user_id BIGINT UNSIGNED NOT NULL,
				message_type VARCHAR(50) NOT NULL,
				message_content MEDIUMTEXT NOT NULL,
				created_time DATETIME NOT NULL,
				PRIMARY KEY (message_id),
				INDEX idx_messages_chat (chat_id),
				CONSTRAINT fk_messages_chat FOREIGN KEY (chat_id) REFERENCES chat_chat(chat_id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS chat_files (
				file_id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				file_name VARCHAR(255) NOT NULL,
				cloud_id VARCHAR(255) NOT NULL,
				user_id BIGINT UNSIGNED NOT NULL,
				chat_id BIGINT UNSIGNED NOT NULL,
				message_id BIGINT UNSIGNED,
				content_type VARCHAR(100) NOT NULL,
				file_size BIGINT NOT NULL,
				upload_date DATETIME NOT NULL,
				extracted_text LONGTEXT,
				text_extraction_successful TINYINT(1) NOT NULL DEFAULT 0,
				PRIMARY KEY (file_id),
				INDEX idx_files_chat (chat_id),
				INDEX idx_files_message (message_id),
				CONSTRAINT fk_files_chat FOREIGN KEY (chat_id) REFERENCES chat_chat(chat_id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS chat_vote (
				vote_id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				chat_id BIGINT UNSIGNED NOT NULL,
				message_id BIGINT UNSIGNED,
				vote_int INT NOT NULL,
				comment TEXT,
				created_time DATETIME NOT NULL,
				PRIMARY KEY (vote_id),
				INDEX idx_vote_chat (chat_id),
				CONSTRAINT fk_vote_chat FOREIGN KEY (chat_id) REFERENCES chat_chat(chat_id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS chat_servers (
				server_id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				endpoint_url VARCHAR(255) NOT NULL,
				endpoint_port INT NOT NULL,
				status VARCHAR(50) NOT NULL,
				token VARCHAR(255),
				PRIMARY KEY (server_id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		}
	default:
		return fmt.Errorf("unsupported driver for migration: %s", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate (%s): %w", driver, err)
		}
	}
	return nil
}
