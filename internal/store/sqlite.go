package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS accounts (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        email TEXT UNIQUE NOT NULL,
        verified BOOLEAN DEFAULT FALSE,
        tier TEXT NOT NULL DEFAULT 'free',
        otp_code TEXT,
        otp_expires_at DATETIME,
        last_login_at DATETIME,
        subscription_ends_at DATETIME,
        last_order_id TEXT,
        last_payment_id TEXT,
        last_paid_at DATETIME,
        settings_json TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

const accountColumns = `id, email, verified, tier, otp_code, otp_expires_at,
    last_login_at, subscription_ends_at, last_order_id, last_payment_id,
    last_paid_at, settings_json, created_at`

func (s *SQLiteStore) scanAccount(row *sql.Row) (*Account, error) {
	var acc Account
	var otpCode, lastOrderID, lastPaymentID sql.NullString
	var otpExpiresAt, lastLoginAt, subscriptionEndsAt, lastPaidAt sql.NullTime
	var settingsJSON string

	err := row.Scan(&acc.ID, &acc.Email, &acc.Verified, &acc.Tier,
		&otpCode, &otpExpiresAt, &lastLoginAt, &subscriptionEndsAt,
		&lastOrderID, &lastPaymentID, &lastPaidAt, &settingsJSON, &acc.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Account not found
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	acc.OTPCode = otpCode.String
	acc.LastOrderID = lastOrderID.String
	acc.LastPaymentID = lastPaymentID.String
	if otpExpiresAt.Valid {
		acc.OTPExpiresAt = &otpExpiresAt.Time
	}
	if lastLoginAt.Valid {
		acc.LastLoginAt = &lastLoginAt.Time
	}
	if subscriptionEndsAt.Valid {
		acc.SubscriptionEndsAt = &subscriptionEndsAt.Time
	}
	if lastPaidAt.Valid {
		acc.LastPaidAt = &lastPaidAt.Time
	}
	if err := json.Unmarshal([]byte(settingsJSON), &acc.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account settings: %w", err)
	}
	return &acc, nil
}

// GetAccountByEmail returns nil, nil when no account exists for the email.
func (s *SQLiteStore) GetAccountByEmail(email string) (*Account, error) {
	row := s.db.QueryRow("SELECT "+accountColumns+" FROM accounts WHERE email = ?", email)
	return s.scanAccount(row)
}

func (s *SQLiteStore) GetAccountByID(id int64) (*Account, error) {
	row := s.db.QueryRow("SELECT "+accountColumns+" FROM accounts WHERE id = ?", id)
	return s.scanAccount(row)
}

func (s *SQLiteStore) CreateAccount(email string) (*Account, error) {
	settingsJSON, err := json.Marshal(DefaultSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal default settings: %w", err)
	}

	res, err := s.db.Exec("INSERT INTO accounts (email, settings_json) VALUES (?, ?)", email, string(settingsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetAccountByID(id)
}

// SetPendingCode stores a freshly issued one-time code and its expiry on the
// account, replacing any previous pending code.
func (s *SQLiteStore) SetPendingCode(email, code string, expiresAt time.Time) error {
	res, err := s.db.Exec("UPDATE accounts SET otp_code = ?, otp_expires_at = ? WHERE email = ?", code, expiresAt, email)
	if err != nil {
		return fmt.Errorf("failed to store pending code: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("account not found, pending code not stored")
	}
	return nil
}

// ConsumePendingCode atomically clears the pending code, conditional on it
// still matching. Two concurrent verifications of the same code cannot both
// succeed: only the UPDATE that observes the code wins. Returns false when
// the code was already consumed or never matched.
func (s *SQLiteStore) ConsumePendingCode(email, code string, loginAt time.Time) (bool, error) {
	res, err := s.db.Exec(`UPDATE accounts
        SET otp_code = NULL, otp_expires_at = NULL, verified = TRUE, last_login_at = ?
        WHERE email = ? AND otp_code = ?`, loginAt, email, code)
	if err != nil {
		return false, fmt.Errorf("failed to consume pending code: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

// ApplyEntitlement records a verified payment on the account: paid tier,
// payment identifiers, and the new subscription end date.
func (s *SQLiteStore) ApplyEntitlement(accountID int64, tier, orderID, paymentID string, paidAt, subscriptionEnd time.Time) error {
	res, err := s.db.Exec(`UPDATE accounts
        SET tier = ?, last_order_id = ?, last_payment_id = ?, last_paid_at = ?, subscription_ends_at = ?
        WHERE id = ?`, tier, orderID, paymentID, paidAt, subscriptionEnd, accountID)
	if err != nil {
		return fmt.Errorf("failed to apply entitlement: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("account not found, entitlement not applied")
	}
	return nil
}

// UpdateSettings merges a partial patch into the stored settings document
// and returns the result. Fields absent from the patch are left unchanged.
func (s *SQLiteStore) UpdateSettings(accountID int64, patch SettingsPatch) (*Settings, error) {
	acc, err := s.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, fmt.Errorf("account not found, settings not updated")
	}

	settings := acc.Settings
	if patch.Theme != nil {
		settings.Theme = *patch.Theme
	}
	if patch.Language != nil {
		settings.Language = *patch.Language
	}
	if patch.EmailNotifications != nil {
		settings.EmailNotifications = *patch.EmailNotifications
	}

	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}
	if _, err := s.db.Exec("UPDATE accounts SET settings_json = ? WHERE id = ?", string(settingsJSON), accountID); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	return &settings, nil
}

func (s *SQLiteStore) DeleteAccount(accountID int64) error {
	res, err := s.db.Exec("DELETE FROM accounts WHERE id = ?", accountID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("account not found, nothing deleted")
	}
	return nil
}
