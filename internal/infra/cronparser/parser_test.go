package cronparser_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/dockguard/internal/infra/cronparser"
)

type nextAfterCase struct {
	name      string
	giveSpec  string
	giveTZ    string
	giveAfter time.Time
	wantNext  time.Time
	wantErr   bool
}

func TestNextAfter(t *testing.T) {
	t.Parallel()

	parser := cronparser.New()

	base := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)

	tests := []nextAfterCase{
		{
			name:      "daily at nine utc",
			giveSpec:  "0 9 * * *",
			giveAfter: base,
			wantNext:  time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
		},
		{
			name:      "hourly",
			giveSpec:  "0 * * * *",
			giveAfter: base,
			wantNext:  time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
		},
		{
			name:     "invalid spec",
			giveSpec: "not a cron",
			wantErr:  true,
		},
		{
			name:      "explicit tz",
			giveSpec:  "0 9 * * *",
			giveTZ:    "UTC",
			giveAfter: base,
			wantNext:  time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parser.NextAfter(tt.giveSpec, tt.giveTZ, tt.giveAfter)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			require.True(t, got.Equal(tt.wantNext), "got %s want %s", got, tt.wantNext)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	parser := cronparser.New()

	require.NoError(t, parser.Validate("*/5 * * * *", ""))
	require.Error(t, parser.Validate("banana", ""))
}
