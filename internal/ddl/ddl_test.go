package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDDL = `
CREATE TABLE users (
	id BIGINT NOT NULL PRIMARY KEY,
	email VARCHAR(255) NOT NULL,
	created_at TIMESTAMP NOT NULL,
	is_active TINYINT(1) NOT NULL
);

CREATE TABLE orders (
	user_id BIGINT NOT NULL,
	total DECIMAL(10,2) NOT NULL
);
`

func TestLoadFromDDL(t *testing.T) {
	l := NewLoader(Options{PrimaryTable: "users"})
	b, err := l.Load(sampleDDL)
	require.NoError(t, err)
	require.Len(t, b.Tables, 2)

	users := b.Tables[0]
	assert.Equal(t, "users", users.TableName)
	assert.True(t, users.Primary)
	assert.Equal(t, "id", users.IDColumnName)

	col, ok := users.ColumnForAttribute("is_active")
	require.True(t, ok)
	assert.Equal(t, "SQL_BOOLEAN", col.SQLKind)

	col, ok = users.ColumnForAttribute("created_at")
	require.True(t, ok)
	assert.Equal(t, "SQL_TIMESTAMP", col.SQLKind)

	orders := b.Tables[1]
	assert.Equal(t, "user_id", orders.IDColumnName, "orders has no primary key, should fall back to first column")
}

func TestLoadRejectsInvalidSQL(t *testing.T) {
	_, err := NewLoader(DefaultOptions()).Load("CREATE TABLE ( this is not valid")
	assert.Error(t, err)
}

func TestLoadSkipsNonCreateTableStatements(t *testing.T) {
	sql := `
INSERT INTO users VALUES (1);
CREATE TABLE t (id INT PRIMARY KEY);
`
	b, err := NewLoader(DefaultOptions()).Load(sql)
	require.NoError(t, err)
	require.Len(t, b.Tables, 1)
	assert.Equal(t, "t", b.Tables[0].TableName)
}
