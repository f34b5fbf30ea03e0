package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/arwahdevops/dbcompare/internal/schema"
)

const mysqlDump = "-- MySQL dump 10.13\n" +
	"/*!40101 SET NAMES utf8 */;\n" +
	"DROP TABLE IF EXISTS `users`;\n" +
	"CREATE TABLE `users` (\n" +
	"  `id` int(11) unsigned NOT NULL AUTO_INCREMENT,\n" +
	"  `name` varchar(255) NOT NULL DEFAULT 'Smith, John' COMMENT 'full name; display',\n" +
	"  `email` varchar(128) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin DEFAULT NULL,\n" +
	"  `org_id` int(11) DEFAULT NULL,\n" +
	"  `updated_at` timestamp NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,\n" +
	"  PRIMARY KEY (`id`),\n" +
	"  UNIQUE KEY `uk_email` (`email`),\n" +
	"  KEY `idx_name` (`name`(10)),\n" +
	"  KEY (`org_id`, `name`),\n" +
	"  CONSTRAINT `fk_users_org` FOREIGN KEY (`org_id`) REFERENCES `orgs` (`id`) ON DELETE CASCADE\n" +
	") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;\n" +
	"INSERT INTO `users` VALUES (1,'a;b','c',NULL,NULL);\n"

func TestSplitDefinitions(t *testing.T) {
	members := SplitDefinitions("name VARCHAR(255) DEFAULT 'Smith, John', age INT")
	require.Len(t, members, 2)
	assert.Equal(t, "name VARCHAR(255) DEFAULT 'Smith, John'", members[0])
	assert.Equal(t, "age INT", members[1])
}

func TestSplitStatements(t *testing.T) {
	ddl := "-- header\nCREATE TABLE a (x INT); /* block; comment */\n# hash; comment\nCREATE TABLE b (y TEXT DEFAULT 'p;q');"
	stmts := splitStatements(ddl, lexOptionsFor(schema.MySQL))
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x INT)", stmts[0].text)
	assert.Equal(t, "CREATE TABLE b (y TEXT DEFAULT 'p;q')", stmts[1].text)
}

func TestSplitStatementsDollarQuotes(t *testing.T) {
	ddl := "CREATE FUNCTION f() RETURNS int AS $body$ BEGIN; RETURN 1; END; $body$ LANGUAGE plpgsql;\nCREATE TABLE t (id int);"
	stmts := splitStatements(ddl, lexOptionsFor(schema.PostgreSQL))
	require.Len(t, stmts, 2)
	assert.True(t, strings.HasPrefix(stmts[1].text, "CREATE TABLE t"))
}

func TestSplitStatementsGoBatches(t *testing.T) {
	ddl := "CREATE TABLE a (x INT)\nGO\nCREATE TABLE b (y INT)\ngo\n"
	stmts := splitStatements(ddl, lexOptionsFor(schema.SQLServer))
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE b (y INT)", stmts[1].text)
}

func TestParseMySQLDump(t *testing.T) {
	p, err := New(schema.MySQL, zaptest.NewLogger(t))
	require.NoError(t, err)

	s := p.Parse(mysqlDump)
	assert.Equal(t, schema.MySQL, s.Dialect)
	require.Equal(t, []string{"users"}, s.Names())

	users := s.Tables["users"]
	assert.Equal(t, []string{"id", "name", "email", "org_id", "updated_at"}, users.ColumnOrder)
	assert.True(t, strings.HasPrefix(users.RawSQL, "CREATE TABLE `users` ("))
	assert.True(t, strings.HasSuffix(users.RawSQL, "DEFAULT CHARSET=utf8mb4;"))

	id := users.Columns["id"]
	assert.Equal(t, "int(11) unsigned NOT NULL AUTO_INCREMENT", id.Raw)
	assert.Equal(t, "INT(11) UNSIGNED NOT NULL AUTO_INCREMENT", id.Normalized)
	assert.Equal(t, "int(11)", id.Details.Type)
	assert.False(t, id.Details.Nullable)
	require.NotNil(t, id.Details.Extra)
	assert.Equal(t, "auto_increment", *id.Details.Extra)
	assert.Equal(t, []string{"unsigned"}, id.Details.Attributes)

	name := users.Columns["name"]
	require.NotNil(t, name.Details.Default)
	assert.Equal(t, "Smith, John", *name.Details.Default)
	require.NotNil(t, name.Details.Comment)
	assert.Equal(t, "full name; display", *name.Details.Comment)

	email := users.Columns["email"]
	require.NotNil(t, email.Details.Charset)
	assert.Equal(t, "utf8mb4", *email.Details.Charset)
	require.NotNil(t, email.Details.Collation)
	assert.Equal(t, "utf8mb4_bin", *email.Details.Collation)
	assert.True(t, email.Details.Nullable)

	updated := users.Columns["updated_at"]
	require.NotNil(t, updated.Details.Extra)
	assert.Equal(t, "on update CURRENT_TIMESTAMP", *updated.Details.Extra)

	assert.Equal(t, map[string]*schema.Index{
		"PRIMARY":      {Name: "PRIMARY", Kind: schema.IndexPrimary, Columns: "id", Inline: true},
		"uk_email":     {Name: "uk_email", Kind: schema.IndexUnique, Columns: "email", Inline: true},
		"idx_name":     {Name: "idx_name", Kind: schema.IndexKey, Columns: "name(10)", Inline: true},
		"auto_key_1":   {Name: "auto_key_1", Kind: schema.IndexKey, Columns: "org_id, name", Inline: true},
		"fk_users_org": {Name: "fk_users_org", Kind: schema.IndexForeign, Columns: "org_id", References: "orgs(id) ON DELETE CASCADE", Constraint: "fk_users_org", Inline: true},
	}, users.Indexes)
}

func TestParseSynthesizesConstraintNames(t *testing.T) {
	ddl := `CREATE TABLE t (
		a INT, b INT, c INT,
		UNIQUE (a),
		UNIQUE KEY (b),
		KEY (c),
		INDEX (a, b),
		FOREIGN KEY (c) REFERENCES other(id),
		FOREIGN KEY (a) REFERENCES other(id)
	);`
	s, err := Parse(ddl, schema.MySQL)
	require.NoError(t, err)
	idx := s.Tables["t"].Indexes
	require.Len(t, idx, 6)
	assert.Equal(t, schema.IndexUnique, idx["unique_1"].Kind)
	assert.Equal(t, "a", idx["unique_1"].Columns)
	assert.Equal(t, "b", idx["unique_2"].Columns)
	assert.Equal(t, "c", idx["auto_key_1"].Columns)
	assert.Equal(t, "a, b", idx["auto_key_2"].Columns)
	assert.Equal(t, "c", idx["fk_1"].Columns)
	assert.Equal(t, "other(id)", idx["fk_1"].References)
	assert.Equal(t, "a", idx["fk_2"].Columns)
}

func TestParseSkipsNonCreateTable(t *testing.T) {
	ddl := `SET FOREIGN_KEY_CHECKS=0;
CREATE VIEW v AS SELECT 1;
CREATE INDEX idx ON t (a);
ALTER TABLE t ADD COLUMN b INT;
INSERT INTO t VALUES (1);`
	s, err := Parse(ddl, schema.MySQL)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestParseBestEffort(t *testing.T) {
	testCases := []struct {
		name    string
		ddl     string
		table   string
		columns []string
	}{
		{"Missing Close Paren", "CREATE TABLE broken (id INT NOT NULL, name TEXT", "broken", []string{"id", "name"}},
		{"Create As Select", "CREATE TABLE copy AS SELECT * FROM src", "copy", nil},
		{"Empty Body", "CREATE TABLE empty ()", "empty", nil},
		{"Trailing Comma", "CREATE TABLE t (id INT,)", "t", []string{"id"}},
		{"Temporary If Not Exists", "create temporary table if not exists tmp (x int)", "tmp", []string{"x"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Parse(tc.ddl, schema.MySQL)
			require.NoError(t, err)
			require.Contains(t, s.Tables, tc.table)
			assert.Equal(t, tc.columns, s.Tables[tc.table].ColumnOrder)
		})
	}
}

func TestParseDialects(t *testing.T) {
	testCases := []struct {
		name    string
		dialect schema.Dialect
		ddl     string
		table   string
		columns []string
		indexes map[string]schema.Index
	}{
		{
			name:    "PostgreSQL",
			dialect: schema.PostgreSQL,
			ddl: `CREATE TABLE IF NOT EXISTS "public"."Orders" (
    id bigint GENERATED ALWAYS AS IDENTITY,
    "Total" numeric(10,2) NOT NULL DEFAULT 0,
    note text COLLATE "C",
    customer_id integer REFERENCES customers(id),
    CONSTRAINT orders_pkey PRIMARY KEY (id),
    UNIQUE (customer_id, "Total"),
    CHECK ("Total" >= 0)
);
CREATE INDEX idx_orders_note ON "Orders" (note);`,
			table:   "Orders",
			columns: []string{"id", "Total", "note", "customer_id"},
			indexes: map[string]schema.Index{
				"PRIMARY":  {Name: "PRIMARY", Kind: schema.IndexPrimary, Columns: "id", Constraint: "orders_pkey", Inline: true},
				"unique_1": {Name: "unique_1", Kind: schema.IndexUnique, Columns: "customer_id, Total", Inline: true},
			},
		},
		{
			name:    "SQL Server",
			dialect: schema.SQLServer,
			ddl: `CREATE TABLE [dbo].[Order Details] (
    [OrderID] INT IDENTITY(1,1) NOT NULL,
    [Product Name] NVARCHAR(50) NULL,
    CONSTRAINT [PK_OrderDetails] PRIMARY KEY CLUSTERED ([OrderID] ASC),
    INDEX [IX_Product] NONCLUSTERED ([Product Name])
)
GO`,
			table:   "Order Details",
			columns: []string{"OrderID", "Product Name"},
			indexes: map[string]schema.Index{
				"PRIMARY":    {Name: "PRIMARY", Kind: schema.IndexPrimary, Columns: "OrderID ASC", Constraint: "PK_OrderDetails", Inline: true},
				"IX_Product": {Name: "IX_Product", Kind: schema.IndexKey, Columns: "Product Name", Inline: true},
			},
		},
		{
			name:    "Oracle",
			dialect: schema.Oracle,
			ddl: `CREATE TABLE "HR"."EMPLOYEES" (
  "EMPLOYEE_ID" NUMBER(6,0) NOT NULL ENABLE,
  "EMAIL" VARCHAR2(25 BYTE) CONSTRAINT "EMP_EMAIL_NN" NOT NULL ENABLE,
  "SALARY" NUMBER(8,2),
  CONSTRAINT "EMP_EMAIL_UK" UNIQUE ("EMAIL") ENABLE,
  CONSTRAINT "EMP_EMP_ID_PK" PRIMARY KEY ("EMPLOYEE_ID") USING INDEX ENABLE
) SEGMENT CREATION IMMEDIATE;`,
			table:   "EMPLOYEES",
			columns: []string{"EMPLOYEE_ID", "EMAIL", "SALARY"},
			indexes: map[string]schema.Index{
				"PRIMARY":      {Name: "PRIMARY", Kind: schema.IndexPrimary, Columns: "EMPLOYEE_ID", Constraint: "EMP_EMP_ID_PK", Inline: true},
				"EMP_EMAIL_UK": {Name: "EMP_EMAIL_UK", Kind: schema.IndexUnique, Columns: "EMAIL", Constraint: "EMP_EMAIL_UK", Inline: true},
			},
		},
		{
			name:    "SQLite",
			dialect: schema.SQLite,
			ddl: `CREATE TABLE IF NOT EXISTS notes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  body TEXT DEFAULT '',
  FOREIGN KEY (id) REFERENCES other(id)
);`,
			table:   "notes",
			columns: []string{"id", "title", "body"},
			indexes: map[string]schema.Index{
				"PRIMARY": {Name: "PRIMARY", Kind: schema.IndexPrimary, Columns: "id", Inline: true},
				"fk_1":    {Name: "fk_1", Kind: schema.IndexForeign, Columns: "id", References: "other(id)", Inline: true},
			},
		},
		{
			name:    "Db2",
			dialect: schema.Db2,
			ddl: `CREATE TABLE "DB2INST1"."ACCOUNTS" (
  "ID" INTEGER NOT NULL GENERATED ALWAYS AS IDENTITY (START WITH 1, INCREMENT BY 1),
  "BALANCE" DECIMAL(12,2) NOT NULL WITH DEFAULT 0,
  PRIMARY KEY ("ID")
);`,
			table:   "ACCOUNTS",
			columns: []string{"ID", "BALANCE"},
			indexes: map[string]schema.Index{
				"PRIMARY": {Name: "PRIMARY", Kind: schema.IndexPrimary, Columns: "ID", Inline: true},
			},
		},
		{
			name:    "Document Store",
			dialect: schema.MongoDB,
			ddl:     `CREATE TABLE "users" ("_id" objectId NOT NULL, "name" string, PRIMARY KEY ("_id"));`,
			table:   "users",
			columns: []string{"_id", "name"},
			indexes: map[string]schema.Index{
				"PRIMARY": {Name: "PRIMARY", Kind: schema.IndexPrimary, Columns: "_id", Inline: true},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Parse(tc.ddl, tc.dialect)
			require.NoError(t, err)
			require.Equal(t, []string{tc.table}, s.Names())
			tbl := s.Tables[tc.table]
			assert.Equal(t, tc.columns, tbl.ColumnOrder)
			require.Len(t, tbl.Indexes, len(tc.indexes))
			for name, want := range tc.indexes {
				require.Contains(t, tbl.Indexes, name)
				assert.Equal(t, want, *tbl.Indexes[name])
			}
		})
	}
}

func TestParseDialectColumnDetails(t *testing.T) {
	s, err := Parse(`CREATE TABLE "ACCOUNTS" ("ID" INTEGER NOT NULL GENERATED ALWAYS AS IDENTITY (START WITH 1, INCREMENT BY 1), "BALANCE" DECIMAL(12,2) NOT NULL WITH DEFAULT 0)`, schema.Db2)
	require.NoError(t, err)
	id := s.Tables["ACCOUNTS"].Columns["ID"]
	require.NotNil(t, id.Details.Extra)
	assert.Equal(t, "GENERATED ALWAYS AS IDENTITY (START WITH 1, INCREMENT BY 1)", *id.Details.Extra)
	bal := s.Tables["ACCOUNTS"].Columns["BALANCE"]
	assert.Equal(t, "DECIMAL(12,2)", bal.Details.Type)
	require.NotNil(t, bal.Details.Default)
	assert.Equal(t, "0", *bal.Details.Default)

	s, err = Parse("CREATE TABLE [t] ([id] INT IDENTITY(1,1) NOT NULL)", schema.SQLServer)
	require.NoError(t, err)
	extra := s.Tables["t"].Columns["id"].Details.Extra
	require.NotNil(t, extra)
	assert.Equal(t, "identity(1,1)", *extra)

	s, err = Parse("CREATE TABLE t (id BINARY(16) NOT NULL, name VARCHAR(10) BINARY)", schema.MySQL)
	require.NoError(t, err)
	id = s.Tables["t"].Columns["id"]
	assert.Equal(t, "BINARY(16)", id.Details.Type)
	assert.Empty(t, id.Details.Attributes)
	assert.False(t, id.Details.Nullable)
	name := s.Tables["t"].Columns["name"]
	assert.Equal(t, "VARCHAR(10)", name.Details.Type)
	assert.Equal(t, []string{"binary"}, name.Details.Attributes)

	s, err = Parse(`CREATE TABLE "T" ("ID" NUMBER GENERATED BY DEFAULT ON NULL AS IDENTITY NOT NULL)`, schema.Oracle)
	require.NoError(t, err)
	id = s.Tables["T"].Columns["ID"]
	require.NotNil(t, id.Details.Extra)
	assert.Equal(t, "GENERATED BY DEFAULT ON NULL AS IDENTITY", *id.Details.Extra)
	assert.False(t, id.Details.Nullable)
	assert.Equal(t, "NUMBER", id.Details.Type)
}

func TestParseBackslashInLiteral(t *testing.T) {
	testCases := []struct {
		name     string
		dialect  schema.Dialect
		ddl      string
		nullable bool
		def      string
	}{
		{"PostgreSQL Literal Backslash", schema.PostgreSQL, `CREATE TABLE t (p TEXT DEFAULT 'C:\' NOT NULL)`, false, `C:\`},
		{"SQLite Literal Backslash", schema.SQLite, `CREATE TABLE t (p TEXT DEFAULT 'C:\' NOT NULL)`, false, `C:\`},
		{"MySQL Escaped Quote", schema.MySQL, `CREATE TABLE t (p TEXT DEFAULT 'it\'s' NOT NULL)`, false, `it\'s`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Parse(tc.ddl, tc.dialect)
			require.NoError(t, err)
			p := s.Tables["t"].Columns["p"]
			require.NotNil(t, p)
			assert.Equal(t, tc.nullable, p.Details.Nullable)
			require.NotNil(t, p.Details.Default)
			assert.Equal(t, tc.def, *p.Details.Default)
		})
	}
}

func TestParseRedefinitionKeepsLast(t *testing.T) {
	s, err := Parse("CREATE TABLE t (a INT); CREATE TABLE t (b TEXT);", schema.SQLite)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, s.Tables["t"].ColumnOrder)
	assert.Equal(t, []string{"t"}, s.TableOrder)
}

func TestUnknownDialect(t *testing.T) {
	_, err := Parse("CREATE TABLE t (a INT)", schema.Dialect("cobol"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownDialect)

	_, err = New(schema.Dialect(""), nil)
	assert.ErrorIs(t, err, ErrUnknownDialect)
}

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.sql")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestParseFileEncodings(t *testing.T) {
	gbkComment, err := simplifiedchinese.GBK.NewEncoder().String("中文")
	require.NoError(t, err)

	testCases := []struct {
		name     string
		data     []byte
		wantEnc  string
		wantNote string
	}{
		{"UTF-8", []byte("CREATE TABLE t (c varchar(10) COMMENT 'héllo');"), "utf-8", "héllo"},
		{"UTF-8 With BOM", []byte("\xef\xbb\xbfCREATE TABLE t (c varchar(10) COMMENT 'x');"), "utf-8", "x"},
		{"GBK", []byte("CREATE TABLE t (c varchar(10) COMMENT '" + gbkComment + "');"), "gbk", "中文"},
		{"Latin-1", []byte("CREATE TABLE t (c varchar(10) COMMENT 'caf\xff');"), "latin-1", "cafÿ"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, tc.data)
			_, enc, err := readDDLFile(path)
			require.NoError(t, err)
			assert.Equal(t, tc.wantEnc, enc)

			s, err := ParseFile(path, schema.MySQL)
			require.NoError(t, err)
			comment := s.Tables["t"].Columns["c"].Details.Comment
			require.NotNil(t, comment)
			assert.Equal(t, tc.wantNote, *comment)
		})
	}
}

func TestParseFileMissing(t *testing.T) {
	p, err := New(schema.PostgreSQL, zaptest.NewLogger(t))
	require.NoError(t, err)

	s, err := p.ParseFile(filepath.Join(t.TempDir(), "nope.sql"))
	require.Error(t, err)
	assert.True(t, IsIOError(err))
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Contains(t, ioErr.Path, "nope.sql")
	require.NotNil(t, s)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, schema.PostgreSQL, s.Dialect)
}

func TestBuildCreateTableSQLRoundTrip(t *testing.T) {
	for _, d := range []schema.Dialect{schema.MySQL, schema.PostgreSQL, schema.SQLite, schema.SQLServer} {
		t.Run(d.String(), func(t *testing.T) {
			g, err := For(d)
			require.NoError(t, err)
			original := schema.NewTable("orders")
			for _, c := range []struct{ name, raw string }{
				{"id", "INT NOT NULL"},
				{"customer id", "INT"},
				{"note", "VARCHAR(20) DEFAULT 'a, b'"},
			} {
				original.AddColumn(&schema.Column{Name: c.name, Raw: c.raw})
			}
			original.AddIndex(&schema.Index{Name: "PRIMARY", Kind: schema.IndexPrimary, Columns: "id"})
			original.AddIndex(&schema.Index{Name: "uq_note", Kind: schema.IndexUnique, Columns: "note"})
			original.AddIndex(&schema.Index{Name: "fk_customer", Kind: schema.IndexForeign, Columns: "customer id", References: "customers(id) ON DELETE CASCADE"})

			ddl := g.BuildCreateTableSQL(original)
			parsed, ok := g.ParseStatement(ddl)
			require.True(t, ok, ddl)
			assert.Equal(t, []string{"id", "customer id", "note"}, parsed.ColumnOrder)
			assert.Equal(t, "VARCHAR(20) DEFAULT 'a, b'", parsed.Columns["note"].Raw)
			require.Len(t, parsed.Indexes, 3)
			for _, name := range []string{"PRIMARY", "uq_note", "fk_customer"} {
				want, got := original.Indexes[name], parsed.Indexes[name]
				require.NotNil(t, got, name)
				assert.Equal(t, want.Kind, got.Kind, name)
				assert.Equal(t, want.Columns, got.Columns, name)
				assert.Equal(t, want.References, got.References, name)
				assert.True(t, got.Inline, name)
			}
		})
	}
}

func TestBuildCreateTableSQLPlainIndexes(t *testing.T) {
	tbl := schema.NewTable("t")
	tbl.AddColumn(&schema.Column{Name: "a", Raw: "int"})
	tbl.AddIndex(&schema.Index{Name: "idx_a", Kind: schema.IndexKey, Columns: "a"})

	g, _ := For(schema.MySQL)
	assert.Equal(t, "CREATE TABLE `t` (\n  `a` int,\n  KEY `idx_a` (`a`)\n);", g.BuildCreateTableSQL(tbl))

	g, _ = For(schema.PostgreSQL)
	assert.Equal(t, "CREATE TABLE \"t\" (\n  \"a\" int\n);\nCREATE INDEX \"idx_a\" ON \"t\" (\"a\");", g.BuildCreateTableSQL(tbl))
}

func TestDecodeTableMap(t *testing.T) {
	input := `{
  "orders": {
    "columns": {
      "id": {"raw": "int NOT NULL AUTO_INCREMENT", "normalized": "ignored"},
      "total": {"raw": "decimal(10,2)", "details": {"type": "decimal(10,2)", "nullable": true}}
    },
    "column_order": ["id", "total"],
    "indexes": {"pk": {"type": "PRIMARY", "columns": "id"}, "idx_total": {"type": "INDEX", "columns": "total"}},
    "raw_sql": ""
  }
}`
	s, err := DecodeTableMap(strings.NewReader(input), schema.MySQL)
	require.NoError(t, err)
	orders := s.Tables["orders"]
	require.NotNil(t, orders)
	assert.Equal(t, "orders", orders.Name)
	assert.Equal(t, "INT NOT NULL AUTO_INCREMENT", orders.Columns["id"].Normalized)
	assert.False(t, orders.Columns["id"].Details.Nullable)
	assert.Equal(t, "decimal(10,2)", orders.Columns["total"].Details.Type)
	assert.Equal(t, schema.IndexPrimary, orders.Indexes["PRIMARY"].Kind)
	assert.Equal(t, schema.IndexKey, orders.Indexes["idx_total"].Kind)
	assert.True(t, strings.HasPrefix(orders.RawSQL, "CREATE TABLE `orders`"))

	_, err = DecodeTableMap(strings.NewReader(`{"t": {"indexes": {"x": {"type": "BOGUS"}}}}`), schema.MySQL)
	assert.Error(t, err)
	_, err = DecodeTableMap(strings.NewReader(`not json`), schema.MySQL)
	assert.Error(t, err)
}
