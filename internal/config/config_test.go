package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_PORT", "MONGODB_URI", "MONGODB_DB_NAME",
		"SNAPSHOT_CRON_SCHEDULE", "TIMEZONE",
		"LOT_CLOSED_WEBHOOK_URL", "GOOGLE_SHEETS_CREDENTIALS_PATH",
		"GOOGLE_SHEET_DATABASE_ID",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load("does-not-exist.env")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.MongoDB.DBName != "loomledger" {
		t.Errorf("DBName = %q", cfg.MongoDB.DBName)
	}
	if cfg.Snapshot.CronSchedule != "55 23 * * *" {
		t.Errorf("CronSchedule = %q", cfg.Snapshot.CronSchedule)
	}
	if cfg.Snapshot.Timezone != "Asia/Kolkata" {
		t.Errorf("Timezone = %q", cfg.Snapshot.Timezone)
	}
	if cfg.WebhookEnabled() {
		t.Error("webhook enabled without a URL")
	}
	if cfg.SheetsEnabled() {
		t.Error("sheets enabled without credentials")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("MONGODB_DB_NAME", "loomledger_test")
	t.Setenv("LOT_CLOSED_WEBHOOK_URL", "https://hooks.example.com/lots")
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_PATH", "/etc/creds.json")
	t.Setenv("GOOGLE_SHEET_DATABASE_ID", "sheet-id")

	cfg, err := Load("does-not-exist.env")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.MongoDB.DBName != "loomledger_test" {
		t.Errorf("DBName = %q", cfg.MongoDB.DBName)
	}
	if !cfg.WebhookEnabled() {
		t.Error("webhook not enabled")
	}
	if !cfg.SheetsEnabled() {
		t.Error("sheets not enabled")
	}
}

func TestValidateSheetsConsistency(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Port: "8080"},
		MongoDB:  MongoDBConfig{URI: "mongodb://localhost:27017", DBName: "loomledger"},
		Snapshot: SnapshotConfig{CronSchedule: "55 23 * * *", Timezone: "UTC"},
		Sheets:   SheetsConfig{SpreadsheetID: "sheet-id"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a spreadsheet id without credentials")
	}

	cfg.Sheets.CredentialsPath = "/etc/creds.json"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
