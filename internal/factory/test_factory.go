package factory

import (
	"time"

	"github.com/mcoot/quizroom/internal/dependencies/mocks"
	"github.com/mcoot/quizroom/internal/scoreboard"
	"github.com/mcoot/quizroom/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// extra, if not nil, receives scoreboard updates alongside the SSE hubs.
func NewTestApp(cfg Config, extra scoreboard.Publisher) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	logger := cfg.Logger
	if logger == nil {
		logger = testutil.NopLogger()
	}

	app := newWithDependencies(mockClock, mockRandom, extra, cfg, logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
