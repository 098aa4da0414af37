package warehouse

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/insightx/server/internal/insight/model"
)

func TestAllowed(t *testing.T) {
	cases := []struct {
		stmt string
		want bool
	}{
		{"SELECT * FROM transactions", true},
		{"select count(*) from transactions", true},
		{"  WITH t AS (SELECT 1) SELECT * FROM t", true},
		{"SELECT 1;", true},
		{"", false},
		{"DROP TABLE transactions", false},
		{"UPDATE transactions SET amount_inr = 0", false},
		{"INSERT INTO transactions VALUES (1)", false},
		{"DELETE FROM transactions", false},
		{"PRAGMA table_info(transactions)", false},
		{"SELECT 1; DROP TABLE transactions", false},
		{"-- Could not generate SQL", false},
	}
	for _, c := range cases {
		if got := Allowed(c.stmt); got != c.want {
			t.Errorf("Allowed(%q) = %v, want %v", c.stmt, got, c.want)
		}
	}
}

func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("seed open: %v", err)
	}
	defer db.Close()
	stmts := []string{
		"CREATE TABLE transactions (transaction_id TEXT, amount_inr INTEGER, merchant_category TEXT)",
		"INSERT INTO transactions VALUES ('TXN1', 500, 'Food')",
		"INSERT INTO transactions VALUES ('TXN2', 1200, NULL)",
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("seed exec: %v", err)
		}
	}
	return path
}

func TestQueryMaterializesRows(t *testing.T) {
	db, err := Open(seedDB(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	table, err := db.Query(context.Background(), "SELECT transaction_id, amount_inr, merchant_category FROM transactions ORDER BY transaction_id")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(table.Columns) != 3 || table.Columns[0] != "transaction_id" {
		t.Fatalf("columns = %v", table.Columns)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d", len(table.Rows))
	}
	if table.Rows[0]["transaction_id"] != "TXN1" {
		t.Fatalf("row 0 = %v", table.Rows[0])
	}
	if table.Rows[1]["merchant_category"] != model.NullToken {
		t.Fatalf("NULL not normalized: %v", table.Rows[1]["merchant_category"])
	}
}

func TestQueryRejectsWrites(t *testing.T) {
	db, err := Open(seedDB(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if _, err := db.Query(context.Background(), "DELETE FROM transactions"); err == nil {
		t.Fatal("write statement should be rejected")
	}

	table, err := db.Query(context.Background(), "SELECT COUNT(*) AS n FROM transactions")
	if err != nil {
		t.Fatalf("Query after rejection: %v", err)
	}
	if table.Rows[0]["n"] != int64(2) {
		t.Fatalf("count = %v, data was mutated or misread", table.Rows[0]["n"])
	}
}

func TestQueryEmptyResult(t *testing.T) {
	db, err := Open(seedDB(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	table, err := db.Query(context.Background(), "SELECT * FROM transactions WHERE amount_inr > 999999")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !table.Empty() {
		t.Fatalf("table should be empty, got %d rows", len(table.Rows))
	}
	if len(table.Columns) == 0 {
		t.Fatal("columns should survive an empty result")
	}
}
