package trajplan

import (
	"math"

	"github.com/cncgo/trajplan/internal/ring"
)

// Arc enqueues a raw (unplanned) circular/helical arc, storing theta0,
// radius, signed angular travel (+CW, -CCW), linear travel, the two plane
// axis indices, the linear axis index, and total time. The segmenter
// (runArc) expands this into fixed-length line segments at dispatch time.
func (p *Planner) Arc(target []float64, theta, radius, angularTravel, linearTravel float64, axis1, axis2, axisLinear int, minutes float64) (Status, error) {
	length := math.Hypot(angularTravel*radius, linearTravel)
	if length < p.cfg.MinLineLength || minutes < p.cfg.Epsilon {
		p.observe().ObserveTrap("zero_length")
		return StatusZeroLengthMove, nil
	}

	buf, ok := p.pool.GetWriteBuffer()
	if !ok {
		return p.bufferFullFatal("Arc")
	}
	copy(buf.Target, target)
	buf.Arc = ring.Arc{
		Theta:         theta,
		Radius:        radius,
		AngularTravel: angularTravel,
		LinearTravel:  linearTravel,
		Axis1:         axis1,
		Axis2:         axis2,
		AxisLinear:    axisLinear,
	}
	buf.Length = length
	buf.Time = minutes
	buf.Replannable = false

	copy(p.mm.position, target)
	p.pool.QueueWriteBuffer(ring.MoveArc)
	p.observe().ObserveQueue("arc")
	return StatusOK, nil
}

// runArc segments the arc into fixed-length line approximations on first
// entry, then emits one segment per re-entry until segmentCount reaches
// zero.
func (p *Planner) runArc(buf *ring.Buffer) Status {
	if buf.MoveState == ring.StateNew {
		segments := int(math.Ceil(buf.Length / p.cfg.MinSegmentLen))
		if segments < 1 {
			segments = 1
		}
		p.mr.segmentCount = segments
		p.mr.segmentTheta = buf.Arc.AngularTravel / float64(segments)
		p.mr.segmentLength = buf.Arc.LinearTravel / float64(segments)
		p.mr.segmentMicroseconds = MicrosecondsFromMinutes(buf.Time / float64(segments))
		p.mr.theta = buf.Arc.Theta
		p.mr.center1 = p.mr.position[buf.Arc.Axis1] - math.Sin(buf.Arc.Theta)*buf.Arc.Radius
		p.mr.center2 = p.mr.position[buf.Arc.Axis2] - math.Cos(buf.Arc.Theta)*buf.Arc.Radius
		buf.MoveState = ring.StateRunning
	}

	if !p.mq.TestMotorBuffer() {
		return StatusEAGAIN
	}

	p.mr.theta += p.mr.segmentTheta
	target := CopyVector(p.mr.position)
	target[buf.Arc.Axis1] = p.mr.center1 + math.Sin(p.mr.theta)*buf.Arc.Radius
	target[buf.Arc.Axis2] = p.mr.center2 + math.Cos(p.mr.theta)*buf.Arc.Radius
	target[buf.Arc.AxisLinear] += p.mr.segmentLength

	travel := make([]float64, len(target))
	for i := range target {
		travel[i] = target[i] - p.mr.position[i]
	}

	steps := p.kin.Convert(travel, p.mr.segmentMicroseconds)
	if err := p.mq.QueueLine(steps, p.mr.segmentMicroseconds); err != nil {
		return StatusEAGAIN
	}
	copy(p.mr.position, target)
	p.mr.segmentCount--
	p.observe().ObserveSegmentRun(uint64(p.mr.segmentMicroseconds) * 1000)

	if p.mr.segmentCount <= 0 {
		return StatusOK
	}
	return StatusEAGAIN
}
