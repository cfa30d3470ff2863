package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockReporter keeps a copy of every reported record.
type MockReporter struct {
	reportedRecords []Record
	mu              sync.Mutex
}

// NewMockReporter creates an empty MockReporter.
func NewMockReporter() *MockReporter {
	return &MockReporter{
		reportedRecords: []Record{},
	}
}

// Report implements Reporter.
func (mr *MockReporter) Report(r Record) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.reportedRecords = append(mr.reportedRecords, *r.Clone())
}

// GetReportedRecords returns the records reported so far.
func (mr *MockReporter) GetReportedRecords() []Record {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return append([]Record{}, mr.reportedRecords...)
}

// Reset forgets the reported records.
func (mr *MockReporter) Reset() {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.reportedRecords = []Record{}
}

// useMockReporter installs a fresh MockReporter for the duration of a test.
func useMockReporter(t *testing.T) *MockReporter {
	mockReporter := NewMockReporter()
	SetMetricsReporters([]Reporter{mockReporter})
	t.Cleanup(func() {
		SetMetricsReporters(nil)
	})
	return mockReporter
}

func TestCounter(t *testing.T) {
	mockReporter := useMockReporter(t)
	counter := getCounter("test_counter", "test_group")

	t.Run("Incr", func(t *testing.T) {
		counter.Incr(10)
		records := mockReporter.GetReportedRecords()
		require.Len(t, records, 1)

		record := records[0]
		assert.Equal(t, Value(10), record.Value())
		assert.Equal(t, "test_counter", record.Metrics().Name())
		assert.Equal(t, "test_group", record.Metrics().Group())
		assert.Equal(t, Policy_Sum, record.Metrics().Policy())
		assert.Empty(t, record.Dimensions())
	})

	t.Run("IncrWithDim", func(t *testing.T) {
		mockReporter.Reset()

		counter.IncrWithDim(5, Dimension{"appender": "file", "result": "ok"})
		records := mockReporter.GetReportedRecords()
		require.Len(t, records, 1)
		assert.Equal(t, Value(5), records[0].Value())
		assert.Equal(t, map[string]string{"appender": "file", "result": "ok"}, records[0].Dimensions())
	})

	t.Run("Concurrent", func(t *testing.T) {
		mockReporter.Reset()

		const concurrency, iterations = 10, 100
		var wg sync.WaitGroup
		wg.Add(concurrency)
		for i := 0; i < concurrency; i++ {
			go func() {
				defer wg.Done()
				for j := 0; j < iterations; j++ {
					counter.Incr(1)
				}
			}()
		}
		wg.Wait()

		assert.Len(t, mockReporter.GetReportedRecords(), concurrency*iterations)
	})

	t.Run("SameInstance", func(t *testing.T) {
		assert.Same(t, counter, getCounter("test_counter", "other_group"))
	})
}

func TestCounterHelperFunctions(t *testing.T) {
	mockReporter := useMockReporter(t)

	IncrCounterWithGroup("helper_counter", "helper_group", 20)
	records := mockReporter.GetReportedRecords()
	require.Len(t, records, 1)
	assert.Equal(t, Value(20), records[0].Value())
	assert.Equal(t, "helper_counter", records[0].Metrics().Name())
	assert.Equal(t, "helper_group", records[0].Metrics().Group())

	mockReporter.Reset()
	IncrCounterWithDimGroup(NameAppenderWriteTotal, GroupLog, 15, Dimension{DimAppender: "console", DimResult: ResultFail})
	records = mockReporter.GetReportedRecords()
	require.Len(t, records, 1)
	assert.Equal(t, Value(15), records[0].Value())
	assert.Equal(t, NameAppenderWriteTotal, records[0].Metrics().Name())
	assert.Equal(t, "console", records[0].Dimensions()[DimAppender])
	assert.Equal(t, ResultFail, records[0].Dimensions()[DimResult])
}

func TestGauges(t *testing.T) {
	mockReporter := useMockReporter(t)

	t.Run("Set", func(t *testing.T) {
		UpdateGaugeWithGroup(NameRegistryAppenders, GroupLog, 3)
		UpdateGaugeWithDimGroup("dim_gauge", "test_group", 7, Dimension{"appender": "file"})

		records := mockReporter.GetReportedRecords()
		require.Len(t, records, 2)
		assert.Equal(t, Policy_Set, records[0].Metrics().Policy())
		assert.Equal(t, Value(3), records[0].Value())
		assert.Equal(t, "file", records[1].Dimensions()["appender"])
	})

	t.Run("Max", func(t *testing.T) {
		mockReporter.Reset()
		UpdateMaxGaugeWithGroup(NameEventSizeMaxBytes, GroupLog, 128)
		UpdateMaxGaugeWithDimGroup("dim_max", "test_group", 9, Dimension{"k": "v"})

		records := mockReporter.GetReportedRecords()
		require.Len(t, records, 2)
		assert.Equal(t, Policy_Max, records[0].Metrics().Policy())
		assert.Equal(t, Value(128), records[0].Value())
		assert.Equal(t, GroupLog, records[0].Metrics().Group())
		assert.Equal(t, "v", records[1].Dimensions()["k"])
	})

	t.Run("SetAndMaxAreDistinct", func(t *testing.T) {
		assert.NotEqual(t, getGauge("shared_name", "g").Policy(), getMaxGauge("shared_name", "g").Policy())
	})
}

func TestReporters(t *testing.T) {
	defer SetMetricsReporters(nil)

	first, second := NewMockReporter(), NewMockReporter()
	SetMetricsReporters(nil)
	AddMetricsReporter(first)
	AddMetricsReporter(second)

	IncrCounterWithGroup("fanout_counter", "test_group", 1)
	assert.Len(t, first.GetReportedRecords(), 1)
	assert.Len(t, second.GetReportedRecords(), 1)

	RemoveMetricsReporter(first)
	IncrCounterWithGroup("fanout_counter", "test_group", 1)
	assert.Len(t, first.GetReportedRecords(), 1)
	assert.Len(t, second.GetReportedRecords(), 2)

	reporters := []Reporter{first}
	SetMetricsReporters(reporters)
	reporters[0] = second
	IncrCounterWithGroup("fanout_counter", "test_group", 1)
	assert.Len(t, first.GetReportedRecords(), 2, "the reporter list is copied")
}
