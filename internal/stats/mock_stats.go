package stats

import "github.com/stretchr/testify/mock"

type MockStatsUpdater struct {
	mock.Mock
}

func (m *MockStatsUpdater) Incr(name string) {
	m.Called(name)
}
func (m *MockStatsUpdater) Decr(name string) {
	m.Called(name)
}
func (m *MockStatsUpdater) RegisterMetric(name string) {
	m.Called(name)
}
func (m *MockStatsUpdater) Run() {
	m.Called()
}

// NewLenientMock returns a mock that accepts any metric update.
func NewLenientMock() *MockStatsUpdater {
	m := &MockStatsUpdater{}
	m.On("Incr", mock.Anything)
	m.On("Decr", mock.Anything)
	m.On("RegisterMetric", mock.Anything)
	return m
}
