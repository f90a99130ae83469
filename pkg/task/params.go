package task

import "fmt"

// ParamError is a configuration error: wrong parameter count or a value that
// fails validation. It is detected before any hardware access, reported
// descriptively and never fatal; no result buffers exist when it is returned.
type ParamError struct {
	msg string
}

func (e *ParamError) Error() string { return e.msg }

func paramErrorf(format string, args ...interface{}) error {
	return &ParamError{msg: fmt.Sprintf(format, args...)}
}

// IsParamError reports whether err is a configuration error.
func IsParamError(err error) bool {
	_, ok := err.(*ParamError)
	return ok
}

// CorrelationParams parameterize the g1-fft and g2-fft tasks.
type CorrelationParams struct {
	Averages   uint32
	Iterations uint32
	PCStart    uint32
	PCStartSS  uint32
	MeasureSS  bool
}

// DecodeCorrelationParams decodes the five-value parameter list
// (averages, iterations, pc_start, pc_start_ss, measure_ss).
func DecodeCorrelationParams(params []uint32) (CorrelationParams, error) {
	if len(params) != 5 {
		return CorrelationParams{}, paramErrorf(
			"please provide exactly 5 parameter values for the task (%d given)", len(params))
	}
	return CorrelationParams{
		Averages:   params[0],
		Iterations: params[1],
		PCStart:    params[2],
		PCStartSS:  params[3],
		MeasureSS:  params[4] != 0,
	}, nil
}

// DirectParams parameterize the windowed g1-direct and g2-direct tasks.
type DirectParams struct {
	Averages   uint32
	Iterations uint32
	TauMax     uint32 // lag window width, in sample periods
	PCStart    uint32
	PCStartSS  uint32
	MeasureSS  bool
	Shift      uint32 // per-addend right shift keeping sums inside 64 bits
}

// DecodeDirectParams decodes the seven-value parameter list
// (averages, iterations, tau_max, pc_start, pc_start_ss, measure_ss, shift).
func DecodeDirectParams(params []uint32, sampleNum uint32) (DirectParams, error) {
	if len(params) != 7 {
		return DirectParams{}, paramErrorf(
			"please provide exactly 7 parameter values for the task (%d given)", len(params))
	}
	p := DirectParams{
		Averages:   params[0],
		Iterations: params[1],
		TauMax:     params[2],
		PCStart:    params[3],
		PCStartSS:  params[4],
		MeasureSS:  params[5] != 0,
		Shift:      params[6],
	}
	if p.TauMax == 0 || p.TauMax >= sampleNum {
		return DirectParams{}, paramErrorf(
			"tau_max must be in 1..%d (%d given)", sampleNum-1, p.TauMax)
	}
	if p.Shift > 63 {
		return DirectParams{}, paramErrorf("shift must be below 64 (%d given)", p.Shift)
	}
	return p, nil
}

// CombinedParams parameterize the correlation-all task, which computes g1 and
// g2 together and periodically recalibrates the recording phase offsets.
type CombinedParams struct {
	Averages        uint32
	Iterations      uint32
	PCStart         uint32
	PCStartSS       uint32
	CalPC           uint32
	CalAverages     uint32
	CalValueShift   uint32
	CalRecDuration  uint32
	CalModSelection uint32 // recalibrate every this many iterations
}

// DecodeCombinedParams decodes the nine-value parameter list of the combined
// correlation task.
func DecodeCombinedParams(params []uint32) (CombinedParams, error) {
	if len(params) != 9 {
		return CombinedParams{}, paramErrorf(
			"please provide exactly 9 parameter values for the task (%d given)", len(params))
	}
	p := CombinedParams{
		Averages:        params[0],
		Iterations:      params[1],
		PCStart:         params[2],
		PCStartSS:       params[3],
		CalPC:           params[4],
		CalAverages:     params[5],
		CalValueShift:   params[6],
		CalRecDuration:  params[7],
		CalModSelection: params[8],
	}
	if p.CalModSelection == 0 {
		return CombinedParams{}, paramErrorf("cal_mod_selection must be at least 1")
	}
	return p, nil
}

// StateCollectParams parameterize the state-collect task.
type StateCollectParams struct {
	Repetitions uint32
	Cells       []int
	// RecordingCounts mirror the submitted per-cell counts. The drainer
	// does not consume them, but the decoder still validates their
	// presence so callers keep one parameter convention.
	RecordingCounts []uint32
}

// DecodeStateCollectParams decodes the variable-length parameter list
// (repetitions, cell_count, cell indices..., recording counts...).
func DecodeStateCollectParams(params []uint32, available int) (StateCollectParams, error) {
	if len(params) < 4 {
		return StateCollectParams{}, paramErrorf(
			"this task needs atleast 4 parameter values (only %d given)", len(params))
	}
	repetitions := params[0]
	if repetitions%StatesPerWord != 0 {
		return StateCollectParams{}, paramErrorf(
			"this task can only perform a multiple of %d repetitions (%d requested)",
			StatesPerWord, repetitions)
	}
	cellNum := int(params[1])
	if len(params) != 2+2*cellNum {
		return StateCollectParams{}, paramErrorf(
			"this task needs exactly %d parameter values (%d given)", 2+2*cellNum, len(params))
	}

	p := StateCollectParams{Repetitions: repetitions}
	for c := 0; c < cellNum; c++ {
		idx := params[2+c]
		if int(idx) >= available {
			return StateCollectParams{}, paramErrorf(
				"requested cell %d, but only 0 to %d available", idx, available-1)
		}
		p.Cells = append(p.Cells, int(idx))
	}
	p.RecordingCounts = append(p.RecordingCounts, params[2+cellNum:]...)
	return p, nil
}
