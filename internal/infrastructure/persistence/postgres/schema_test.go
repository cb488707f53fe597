package postgres

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// The store SQL is parsed by Postgres against the migrated schema, not by any
// unit test, so a column referenced here but missing from the DDL would only
// surface at runtime. These tests keep the SQL constants and the migration in
// agreement.

func migrationColumns(t *testing.T, table string) map[string]bool {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "migrations", "0001_init.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	block := regexp.MustCompile(`(?s)CREATE TABLE ` + table + ` \((.*?)\);`).FindStringSubmatch(string(raw))
	if block == nil {
		t.Fatalf("migration has no CREATE TABLE %s", table)
	}
	columns := make(map[string]bool)
	for _, line := range strings.Split(block[1], "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := fields[0]
		if name == strings.ToUpper(name) { // table constraint lines (UNIQUE ...)
			continue
		}
		columns[name] = true
	}
	return columns
}

// insertColumnList returns the parenthesized column list of an INSERT.
func insertColumnList(t *testing.T, sql string) []string {
	t.Helper()
	m := regexp.MustCompile(`INSERT INTO \w+ \(([^)]+)\)`).FindStringSubmatch(sql)
	if m == nil {
		t.Fatalf("no INSERT column list in %q", sql)
	}
	parts := strings.Split(m[1], ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// aliasedColumns returns columns referenced as alias.<name>.
func aliasedColumns(sql, alias string) []string {
	var cols []string
	for _, m := range regexp.MustCompile(`\b` + alias + `\.([a-z_]+)`).FindAllStringSubmatch(sql, -1) {
		cols = append(cols, m[1])
	}
	return cols
}

func TestSessionSQLColumnsExistInMigration(t *testing.T) {
	columns := migrationColumns(t, "sessions")

	for _, col := range insertColumnList(t, insertSessionSQL) {
		if !columns[col] {
			t.Errorf("insertSessionSQL references sessions.%s, missing from migration", col)
		}
	}
	for _, col := range aliasedColumns(findActiveByDigestSQL, "s") {
		if !columns[col] {
			t.Errorf("findActiveByDigestSQL references sessions.%s, missing from migration", col)
		}
	}
	for _, col := range []string{"last_used_at", "revoked_at"} {
		if !columns[col] {
			t.Errorf("sessions.%s missing from migration", col)
		}
	}
}

func TestUserAndOrganizationSQLColumnsExistInMigration(t *testing.T) {
	users := migrationColumns(t, "users")
	orgs := migrationColumns(t, "organizations")

	for _, col := range aliasedColumns(findActiveByDigestSQL, "u") {
		if !users[col] {
			t.Errorf("findActiveByDigestSQL references users.%s, missing from migration", col)
		}
	}
	for _, col := range aliasedColumns(findActiveByDigestSQL, "o") {
		if !orgs[col] {
			t.Errorf("findActiveByDigestSQL references organizations.%s, missing from migration", col)
		}
	}
	for _, col := range insertColumnList(t, insertUserSQL) {
		if !users[col] {
			t.Errorf("insertUserSQL references users.%s, missing from migration", col)
		}
	}
	for _, col := range insertColumnList(t, insertOrganizationSQL) {
		if !orgs[col] {
			t.Errorf("insertOrganizationSQL references organizations.%s, missing from migration", col)
		}
	}
	for _, col := range strings.Split("id, organization_id, email, password_hash, role, is_active, created_at, updated_at", ", ") {
		if !users[col] {
			t.Errorf("findUserByEmailSQL references users.%s, missing from migration", col)
		}
	}
}
