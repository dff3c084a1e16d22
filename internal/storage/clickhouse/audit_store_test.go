package clickhouse_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"transfer-tax-lab/internal/domain"
	"transfer-tax-lab/internal/storage"
	chstore "transfer-tax-lab/internal/storage/clickhouse"
	"transfer-tax-lab/internal/storage/migrations"
)

// setupTestDB starts a ClickHouse container and applies the embedded
// migrations. Returns a cleanup function.
func setupTestDB(t *testing.T) (*chstore.Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60*time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://default:@%s:%s/taxlab_test", host, port.Port())

	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	require.NoError(t, err, "failed to run migrations")

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}
	return conn, cleanup
}

func TestAuditStore_AppendAndList(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewAuditStore(conn)
	ctx := context.Background()

	base := time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)
	entries := []domain.AuditEntry{
		{
			TransactionID: "tx-audit-1",
			LedgerVersion: 1,
			RuleVersion:   "2024.1",
			ScenarioID:    domain.ScenarioNow,
			TotalTax:      "94897000",
			TaxableIncome: "279500000",
			AppliedRate:   "0.38",
			TraceJSON:     `[{"step":1,"name":"capital_gain"}]`,
			CalculatedAt:  base,
		},
		{
			TransactionID: "tx-audit-1",
			LedgerVersion: 1,
			RuleVersion:   "2024.1",
			ScenarioID:    domain.ScenarioDelay1Y,
			TotalTax:      "0",
			TaxableIncome: "0",
			AppliedRate:   "0",
			TraceJSON:     `[]`,
			CalculatedAt:  base.Add(time.Second),
		},
		{
			TransactionID: "tx-audit-2",
			LedgerVersion: 1,
			RuleVersion:   "2024.1",
			ScenarioID:    domain.ScenarioNow,
			TotalTax:      "100",
			TaxableIncome: "1000",
			AppliedRate:   "0.06",
			TraceJSON:     `[]`,
			CalculatedAt:  base,
		},
	}
	require.NoError(t, store.Append(ctx, entries))

	got, err := store.ListByTransaction(ctx, "tx-audit-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.ScenarioNow, got[0].ScenarioID)
	assert.Equal(t, "94897000", got[0].TotalTax)
	assert.Equal(t, domain.ScenarioDelay1Y, got[1].ScenarioID)

	none, err := store.ListByTransaction(ctx, "tx-missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAuditStore_AppendValidation(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewAuditStore(conn)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, nil))
	assert.ErrorIs(t, store.Append(ctx, []domain.AuditEntry{{}}), storage.ErrInvalidInput)
}
