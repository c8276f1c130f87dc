package preferences

import (
	"errors"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellbeing/internal/core/model"
)

func TestParseMinutes(t *testing.T) {
	seconds, err := parseMinutes(" 30 ")
	require.NoError(t, err)
	assert.Equal(t, 1800, seconds)

	seconds, err = parseMinutes("0.5")
	require.NoError(t, err)
	assert.Equal(t, 30, seconds)

	_, err = parseMinutes("0")
	assert.Error(t, err)
	_, err = parseMinutes("soon")
	assert.Error(t, err)
}

func TestMinutesText(t *testing.T) {
	assert.Equal(t, "30", minutesText(1800))
	assert.Equal(t, "0.50", minutesText(30))
}

func TestApplyFormLeavesSettingsOnError(t *testing.T) {
	settings := model.DefaultSettings()

	updated, err := applyForm(settings, "-1", false)

	assert.Error(t, err)
	assert.Equal(t, settings, updated)
}

func TestWindowSave(t *testing.T) {
	app := test.NewTempApp(t)
	var saved []model.Settings
	prefs := New(app, model.DefaultSettings(), func(settings model.Settings) error {
		saved = append(saved, settings)
		return nil
	})
	prefs.Show()

	prefs.siteEntry.SetText("Reddit.com")
	test.Tap(prefs.addSite)
	assert.Empty(t, prefs.siteEntry.Text)

	prefs.messages.Select(0)
	test.Tap(prefs.removeMessage)
	prefs.messageEntry.SetText("  Drink some water.  ")
	test.Tap(prefs.addMessage)

	prefs.limit.SetText("45")
	prefs.notifications.SetChecked(false)
	prefs.handleSave()

	require.Len(t, saved, 1)
	assert.Equal(t, 2700, saved[0].TimeLimitSeconds)
	assert.False(t, saved[0].NotificationsEnabled)
	assert.Contains(t, saved[0].Sites, "reddit.com")
	assert.Len(t, saved[0].Messages, len(model.DefaultMessages()))
	assert.NotContains(t, saved[0].Messages, model.DefaultMessages()[0])
	assert.Contains(t, saved[0].Messages, "Drink some water.")
}

func TestWindowSaveErrorKeepsEdits(t *testing.T) {
	app := test.NewTempApp(t)
	prefs := New(app, model.DefaultSettings(), func(model.Settings) error {
		return errors.New("disk full")
	})

	prefs.limit.SetText("10")
	prefs.handleSave()

	assert.Equal(t, model.DefaultTimeLimitSeconds, prefs.settings.TimeLimitSeconds)
	assert.Equal(t, "10", prefs.limit.Text)
}

func TestWindowUpdateStats(t *testing.T) {
	app := test.NewTempApp(t)
	prefs := New(app, model.DefaultSettings(), nil)

	prefs.UpdateStats(model.Stats{
		TotalUsageSeconds:      7200,
		Blocks:                 4,
		TodayUsageSeconds:      1800,
		TodaySessions:          1,
		StreakDays:             3,
		GoalAchievementPercent: 75,
	})

	assert.Equal(t, "30:00 in 1 sessions", prefs.statsLabels["today"].Text)
	assert.Equal(t, "2:00:00", prefs.statsLabels["total"].Text)
	assert.Equal(t, "3 days", prefs.statsLabels["streak"].Text)
	assert.Equal(t, "75%", prefs.statsLabels["goal"].Text)
}

func TestWindowCancelDiscardsEdits(t *testing.T) {
	app := test.NewTempApp(t)
	prefs := New(app, model.DefaultSettings(), nil)

	prefs.siteEntry.SetText("news.example.com")
	test.Tap(prefs.addSite)
	prefs.limit.SetText("5")
	prefs.handleCancel()

	assert.Equal(t, model.DefaultSettings(), prefs.settings)
	assert.Equal(t, "30", prefs.limit.Text)
}
