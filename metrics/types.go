// Package metrics defines the types and constants used for metric collection and reporting.
package metrics

// Policy defines the aggregation policy for metric values.
// It determines how multiple values for the same metric should be combined over a time window.
type Policy int

const (
	Policy_None      Policy = iota // Policy_None indicates no specific aggregation policy. The reporting system may use a default.
	Policy_Set                     // Policy_Set represents an instantaneous value; the last reported value wins.
	Policy_Sum                     // Policy_Sum represents a cumulative value, summing all reported values.
	Policy_Max                     // Policy_Max represents the maximum value among all reported values.
	Policy_Stopwatch               // Policy_Stopwatch is for timing metrics, measuring event durations.
)

// Value represents a metric value as a float64.
type Value float64

// Dimension represents metric dimensions as key-value pairs.
// Dimensions provide contextual information for metrics, such as the appender name or write result.
type Dimension map[string]string

// Group related constants, prefixed with Group.
const (
	// GroupLog is the group name for logging metrics.
	GroupLog = "log"
)

// Metric related constants. The comment lists the group and dimensions.
const (
	// NamePoolCreateTotal: Total number of objects created by a pool because the pool was empty.
	// group:log dimension:poolname
	NamePoolCreateTotal = "pool_create_total"

	// NameAppenderWriteTotal: Total number of events handed to an appender, by result.
	// group:log dimension:appender,result
	NameAppenderWriteTotal = "appender_write_total"

	// NameTimeEnd: Durations measured with Logger.Time / Logger.TimeEnd, in milliseconds.
	// group:log dimension:label
	NameTimeEnd = "logger_time_end"

	// NameRegistryAppenders: Number of appenders currently registered.
	// group:log dimension:
	NameRegistryAppenders = "registry_appenders"

	// NameEventSizeMaxBytes: Largest event content seen by the dispatcher, in bytes.
	// group:log dimension:
	NameEventSizeMaxBytes = "event_size_max_bytes"
)

// Dimension related definitions, must be prefixed with Dim. The comment should include the group.
const (
	// DimPoolName is the dimension for pool name.
	// group:log
	DimPoolName = "poolname"
	// DimAppender is the dimension for appender name.
	// group:log
	DimAppender = "appender"
	// DimResult is the dimension for the outcome of an appender write.
	// group:log
	DimResult = "result"
	// DimLabel is the dimension for the label of a timed section.
	// group:log
	DimLabel = "label"
)

// Values of DimResult.
const (
	ResultOK      = "ok"
	ResultFail    = "fail"
	ResultDropped = "dropped"
)
