package segy

import (
	"github.com/samcharles93/xtfkit/pkg/structcodec"
)

// BinaryHeader is the 400-byte SEG-Y rev 1 binary file header.
type BinaryHeader struct {
	JobID                   int32
	LineNumber              int32
	ReelNumber              int32
	DataTracesPerEnsemble   int16
	AuxTracesPerEnsemble    int16
	SampleInterval          uint16 // microseconds
	SampleIntervalOriginal  uint16
	SamplesPerTrace         uint16
	SamplesPerTraceOriginal uint16
	DataSampleFormat        int16
	EnsembleFold            int16
	TraceSorting            int16
	VerticalSumCode         int16
	SweepFrequencyStart     int16
	SweepFrequencyEnd       int16
	SweepLength             int16
	SweepType               int16
	SweepTraceNumber        int16
	SweepTaperStart         int16
	SweepTaperEnd           int16
	TaperType               int16
	CorrelatedTraces        int16
	BinaryGainRecovered     int16
	AmplitudeRecovery       int16
	MeasurementSystem       int16 // 1 metres, 2 feet
	ImpulsePolarity         int16
	VibratoryPolarity       int16
	Unassigned1             [240]byte
	Revision                uint16 // 0x0100 for rev 1
	FixedLengthTraces       int16
	ExtendedHeaders         int16
	Unassigned2             [94]byte
}

// Format returns the sample format code.
func (h *BinaryHeader) Format() SampleFormat { return SampleFormat(h.DataSampleFormat) }

// Fixed reports whether every trace carries SamplesPerTrace samples.
func (h *BinaryHeader) Fixed() bool {
	return h.FixedLengthTraces == 1 || h.Revision == 0
}

// TraceHeader is the 240-byte SEG-Y rev 1 trace header.
type TraceHeader struct {
	TraceSequenceLine         int32
	TraceSequenceFile         int32
	FieldRecord               int32
	TraceNumber               int32
	EnergySourcePoint         int32
	CDP                       int32
	CDPTrace                  int32
	TraceIdentificationCode   int16
	VerticalSummedTraces      int16
	HorizontalStackedTraces   int16
	DataUse                   int16
	Offset                    int32
	ReceiverGroupElevation    int32
	SourceSurfaceElevation    int32
	SourceDepth               int32
	ReceiverDatumElevation    int32
	SourceDatumElevation      int32
	SourceWaterDepth          int32
	GroupWaterDepth           int32
	ElevationScalar           int16
	CoordinateScalar          int16
	SourceX                   int32
	SourceY                   int32
	GroupX                    int32
	GroupY                    int32
	CoordinateUnits           int16 // 1 length, 2 arc seconds, 3 degrees, 4 DMS
	WeatheringVelocity        int16
	SubWeatheringVelocity     int16
	SourceUpholeTime          int16
	GroupUpholeTime           int16
	SourceStaticCorrection    int16
	GroupStaticCorrection     int16
	TotalStaticApplied        int16
	LagTimeA                  int16
	LagTimeB                  int16
	DelayRecordingTime        int16 // ms
	MuteTimeStart             int16
	MuteTimeEnd               int16
	NumSamples                uint16
	SampleInterval            uint16 // microseconds
	GainType                  int16
	InstrumentGainConstant    int16
	InstrumentInitialGain     int16
	Correlated                int16
	SweepFrequencyStart       int16
	SweepFrequencyEnd         int16
	SweepLength               int16
	SweepType                 int16
	SweepTaperStart           int16
	SweepTaperEnd             int16
	TaperType                 int16
	AliasFilterFrequency      int16
	AliasFilterSlope          int16
	NotchFilterFrequency      int16
	NotchFilterSlope          int16
	LowCutFrequency           int16
	HighCutFrequency          int16
	LowCutSlope               int16
	HighCutSlope              int16
	Year                      int16
	DayOfYear                 int16
	Hour                      int16
	Minute                    int16
	Second                    int16
	TimeBasisCode             int16 // 1 local, 2 GMT, 3 other, 4 UTC
	TraceWeightingFactor      int16
	GeophoneGroupRollSwitch   int16
	GeophoneGroupFirst        int16
	GeophoneGroupLast         int16
	GapSize                   int16
	OverTravel                int16
	CDPX                      int32
	CDPY                      int32
	Inline                    int32
	Crossline                 int32
	ShotPoint                 int32
	ShotPointScalar           int16
	TraceValueUnit            int16
	TransductionMantissa      int32
	TransductionExponent      int16
	TransductionUnit          int16
	DeviceID                  int16
	TimeScalar                int16
	SourceType                int16
	SourceEnergyDirection     [6]byte
	SourceMeasurementMantissa int32
	SourceMeasurementExponent int16
	SourceMeasurementUnit     int16
	Unassigned                [8]byte
}

var (
	binaryHeaderLayout = structcodec.MustLayout(BinaryHeader{})
	traceHeaderLayout  = structcodec.MustLayout(TraceHeader{})
)

// BinaryHeaderLayout exposes the binary header layout for introspection.
func BinaryHeaderLayout() *structcodec.Layout { return binaryHeaderLayout }

// TraceHeaderLayout exposes the trace header layout for introspection.
func TraceHeaderLayout() *structcodec.Layout { return traceHeaderLayout }

// ApplyScalar applies a SEG-Y scalar (positive multiplies, negative
// divides, zero is one) to v.
func ApplyScalar(v int32, scalar int16) float64 {
	switch {
	case scalar > 0:
		return float64(v) * float64(scalar)
	case scalar < 0:
		return float64(v) / float64(-scalar)
	default:
		return float64(v)
	}
}

// Scaled stores v as an integer under scalar, the inverse of ApplyScalar.
func Scaled(v float64, scalar int16) int32 {
	switch {
	case scalar > 0:
		v /= float64(scalar)
	case scalar < 0:
		v *= float64(-scalar)
	}
	return int32(roundClamp(v, -2147483648, 2147483647))
}
