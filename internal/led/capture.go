package led

// CaptureDriver records every frame written, for headless tests.
type CaptureDriver struct {
	Frames [][]RGB
}

func (d *CaptureDriver) Write(frame []RGB) error {
	cp := make([]RGB, len(frame))
	copy(cp, frame)
	d.Frames = append(d.Frames, cp)
	return nil
}

// Last returns the most recent frame, or nil if nothing was written.
func (d *CaptureDriver) Last() []RGB {
	if len(d.Frames) == 0 {
		return nil
	}
	return d.Frames[len(d.Frames)-1]
}
