package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopWatch(t *testing.T) {
	mockReporter := useMockReporter(t)
	stopwatch := getStopWatch("test_stopwatch", "test_group")

	t.Run("Record", func(t *testing.T) {
		startTime := time.Now()
		time.Sleep(10 * time.Millisecond)
		duration := stopwatch.RecordWithDim(nil, startTime)
		assert.GreaterOrEqual(t, duration, 10*time.Millisecond)

		records := mockReporter.GetReportedRecords()
		require.Len(t, records, 1)

		record := records[0]
		assert.GreaterOrEqual(t, record.Value(), Value(10), "values are milliseconds")
		assert.Equal(t, "test_stopwatch", record.Metrics().Name())
		assert.Equal(t, "test_group", record.Metrics().Group())
		assert.Equal(t, Policy_Stopwatch, record.Metrics().Policy())
		_, cnt := record.RawData()
		assert.Equal(t, 1, cnt)
	})

	t.Run("RecordWithDim", func(t *testing.T) {
		mockReporter.Reset()

		stopwatch.RecordWithDim(Dimension{DimLabel: "load config"}, time.Now())
		records := mockReporter.GetReportedRecords()
		require.Len(t, records, 1)
		assert.Equal(t, "load config", records[0].Dimensions()[DimLabel])
	})

	t.Run("Increasing", func(t *testing.T) {
		mockReporter.Reset()

		for i := 0; i < 3; i++ {
			startTime := time.Now()
			time.Sleep(time.Duration((i+1)*(i+1)) * 5 * time.Millisecond)
			stopwatch.RecordWithDim(nil, startTime)
		}

		records := mockReporter.GetReportedRecords()
		require.Len(t, records, 3)
		for i := 1; i < len(records); i++ {
			assert.Greater(t, records[i].Value(), records[i-1].Value())
		}
	})

	t.Run("Concurrent", func(t *testing.T) {
		mockReporter.Reset()

		const concurrency = 5
		var wg sync.WaitGroup
		wg.Add(concurrency)
		for i := 0; i < concurrency; i++ {
			go func() {
				defer wg.Done()
				startTime := time.Now()
				time.Sleep(2 * time.Millisecond)
				stopwatch.RecordWithDim(nil, startTime)
			}()
		}
		wg.Wait()

		records := mockReporter.GetReportedRecords()
		require.Len(t, records, concurrency)
		for _, record := range records {
			assert.Greater(t, record.Value(), Value(0))
		}
	})
}

func TestStopWatchHelperFunctions(t *testing.T) {
	mockReporter := useMockReporter(t)

	duration := RecordStopwatch("helper_stopwatch", time.Now().Add(-8*time.Millisecond))
	assert.GreaterOrEqual(t, duration, 8*time.Millisecond)
	records := mockReporter.GetReportedRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "helper_stopwatch", records[0].Metrics().Name())
	assert.Empty(t, records[0].Metrics().Group())

	mockReporter.Reset()
	RecordStopwatchWithGroup("group_stopwatch", "timer_group", time.Now())
	records = mockReporter.GetReportedRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "timer_group", records[0].Metrics().Group())

	mockReporter.Reset()
	RecordStopwatchWithDimGroup(NameTimeEnd, GroupLog, time.Now(), Dimension{DimLabel: "query"})
	records = mockReporter.GetReportedRecords()
	require.Len(t, records, 1)
	assert.Equal(t, NameTimeEnd, records[0].Metrics().Name())
	assert.Equal(t, GroupLog, records[0].Metrics().Group())
	assert.Equal(t, "query", records[0].Dimensions()[DimLabel])
}
