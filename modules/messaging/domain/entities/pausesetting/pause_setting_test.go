package pausesetting_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/pausesetting"
)

func TestSettingWindow(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		duration int
		unit     pausesetting.Unit
		want     time.Duration
	}{
		{"minutes", 6, pausesetting.UnitMinutes, 6 * time.Minute},
		{"hours", 2, pausesetting.UnitHours, 2 * time.Hour},
		{"days", 1, pausesetting.UnitDays, 24 * time.Hour},
		{"unknown unit falls back to minutes", 15, pausesetting.Unit("fortnights"), 15 * time.Minute},
		{"zero duration", 0, pausesetting.UnitMinutes, 0},
		{"negative duration", -5, pausesetting.UnitHours, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			setting := pausesetting.New(uuid.New(), tc.duration, tc.unit)
			assert.Equal(t, tc.want, setting.Window())
		})
	}
}
