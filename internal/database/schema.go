package database

import (
	"context"
	"database/sql"
)

// schemaStatements creates the fixed schema used by the registry.  The
// schema is decided at build time; nothing probes for optional columns at
// runtime.  Statements are idempotent so EnsureSchema can run on every
// startup and inside test setup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(16)  NOT NULL DEFAULT 'VISITOR',
		is_active     TINYINT(1)   NOT NULL DEFAULT 1,
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)  NOT NULL,
		expires_at DATETIME  NOT NULL,
		revoked_at DATETIME  NULL,
		created_at DATETIME  NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_refresh_tokens_hash (token_hash),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS plots (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		uid           CHAR(36)     NOT NULL,
		name          VARCHAR(64)  NOT NULL,
		section       VARCHAR(64)  NOT NULL DEFAULT '',
		plot_type     VARCHAR(16)  NOT NULL DEFAULT 'SINGLE',
		size_sqm      DECIMAL(6,2) NOT NULL DEFAULT 0,
		price_cents   BIGINT UNSIGNED NOT NULL DEFAULT 0,
		geometry_ref  VARCHAR(255) NULL,
		status        VARCHAR(16)  NOT NULL DEFAULT 'available',
		maintenance   TINYINT(1)   NOT NULL DEFAULT 0,
		occupant_name VARCHAR(255) NULL,
		occupant_born DATE         NULL,
		occupant_died DATE         NULL,
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_plots_uid (uid),
		UNIQUE KEY uq_plots_name (name),
		KEY idx_plots_section_status (section, status)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id                  BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		plot_id             BIGINT UNSIGNED NOT NULL,
		holder_id           BIGINT UNSIGNED NOT NULL,
		status              VARCHAR(16) NOT NULL DEFAULT 'pending',
		payment_status      VARCHAR(16) NOT NULL DEFAULT 'unpaid',
		payment_receipt_ref VARCHAR(255) NULL,
		notes               TEXT NOT NULL,
		created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_reservations_plot_status (plot_id, status),
		KEY idx_reservations_holder (holder_id),
		CONSTRAINT fk_reservations_plot FOREIGN KEY (plot_id) REFERENCES plots (id),
		CONSTRAINT fk_reservations_holder FOREIGN KEY (holder_id) REFERENCES users (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS burial_records (
		id                 BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		plot_id            BIGINT UNSIGNED NOT NULL,
		reservation_id     BIGINT UNSIGNED NULL,
		holder_id          BIGINT UNSIGNED NULL,
		deceased_name      VARCHAR(255) NOT NULL,
		birth_date         DATE NULL,
		death_date         DATE NULL,
		burial_date        DATE NOT NULL,
		epitaph            TEXT NULL,
		memorial_photo_ref VARCHAR(255) NULL,
		is_active          TINYINT(1) NOT NULL DEFAULT 1,
		created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_burial_records_plot_active (plot_id, is_active),
		CONSTRAINT fk_burial_records_plot FOREIGN KEY (plot_id) REFERENCES plots (id),
		CONSTRAINT fk_burial_records_reservation FOREIGN KEY (reservation_id) REFERENCES reservations (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS burial_requests (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		plot_id      BIGINT UNSIGNED NULL,
		requester_id BIGINT UNSIGNED NOT NULL,
		kind         VARCHAR(16) NOT NULL,
		status       VARCHAR(16) NOT NULL DEFAULT 'pending',
		subject_name VARCHAR(255) NOT NULL,
		notes        TEXT NOT NULL,
		created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_burial_requests_requester (requester_id),
		KEY idx_burial_requests_status (status),
		CONSTRAINT fk_burial_requests_requester FOREIGN KEY (requester_id) REFERENCES users (id)
	) ENGINE=InnoDB`,
}

// EnsureSchema creates any missing tables.  It is safe to call more than
// once; existing tables are left untouched.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
