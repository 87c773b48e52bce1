package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements are executed in order on startup.  Tables reference each
// other by id only, so the order matters for readability more than for
// constraints; the DDL is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(255) NOT NULL,
		venue_name VARCHAR(255) NOT NULL DEFAULT '',
		starts_at DATETIME NOT NULL,
		ends_at DATETIME NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'draft',
		capacity INT UNSIGNED NOT NULL DEFAULT 0,
		chart_id BIGINT UNSIGNED NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_events_status (status, starts_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS ticket_types (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		event_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(255) NOT NULL,
		price_cents BIGINT NOT NULL DEFAULT 0,
		capacity INT UNSIGNED NULL,
		sale_start DATETIME NULL,
		sale_end DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_ticket_types_event (event_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS seating_charts (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		venue_id BIGINT UNSIGNED NULL,
		name VARCHAR(255) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'active',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS sections (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		chart_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(255) NOT NULL,
		label VARCHAR(64) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_sections_chart (chart_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	// held_until is the single source of truth for hold expiry; a seat whose
	// status is 'held' but whose held_until has passed counts as available.
	`CREATE TABLE IF NOT EXISTS seats (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		section_id BIGINT UNSIGNED NOT NULL,
		chart_id BIGINT UNSIGNED NOT NULL,
		row_name VARCHAR(32) NOT NULL,
		seat_number VARCHAR(32) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'available',
		hold_token CHAR(36) NOT NULL DEFAULT '',
		held_until DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_seats_position (section_id, row_name, seat_number),
		KEY idx_seats_chart_status (chart_id, status),
		KEY idx_seats_hold_token (hold_token)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS tickets (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		order_id BIGINT UNSIGNED NOT NULL,
		order_item_id BIGINT UNSIGNED NOT NULL DEFAULT 0,
		event_id BIGINT UNSIGNED NOT NULL,
		type_id BIGINT UNSIGNED NOT NULL,
		ticket_code VARCHAR(32) NOT NULL,
		customer_id BIGINT UNSIGNED NOT NULL DEFAULT 0,
		buyer_email VARCHAR(255) NOT NULL DEFAULT '',
		first_name VARCHAR(128) NOT NULL DEFAULT '',
		last_name VARCHAR(128) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		seat_id BIGINT UNSIGNED NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		checked_in_at DATETIME NULL,
		checked_in_by BIGINT UNSIGNED NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_tickets_code (ticket_code),
		KEY idx_tickets_event_status (event_id, status),
		KEY idx_tickets_order (order_id),
		KEY idx_tickets_customer (customer_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS check_ins (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		ticket_id BIGINT UNSIGNED NOT NULL,
		event_id BIGINT UNSIGNED NOT NULL,
		checked_in_by BIGINT UNSIGNED NOT NULL,
		check_in_time DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		station_id VARCHAR(64) NOT NULL DEFAULT '',
		notes TEXT,
		location VARCHAR(128) NOT NULL DEFAULT '',
		PRIMARY KEY (id),
		KEY idx_check_ins_ticket (ticket_id),
		KEY idx_check_ins_event (event_id, check_in_time)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS capacity_holds (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		event_id BIGINT UNSIGNED NOT NULL,
		type_id BIGINT UNSIGNED NOT NULL,
		quantity INT UNSIGNED NOT NULL,
		hold_token CHAR(36) NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_capacity_holds_token (hold_token),
		KEY idx_capacity_holds_event (event_id, expires_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'STAFF',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates all tables on startup.  Safe to call on every boot.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
