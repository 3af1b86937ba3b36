package particles

import (
	"fmt"

	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/controlpoint"
)

// State is the persisted form of a collection tree. Unit contexts are not
// part of it; they are re-initialized on restore.
type State struct {
	Name          string
	CurTime       float64
	Dt            float64
	PrevDt        float64
	Stepped       bool
	Steps         int
	NextID        int32
	Particles     attribute.Snapshot
	ControlPoints controlpoint.SetState
	Children      []State
}

// State captures the collection and its children.
func (c *Collection) State() State {
	st := State{
		Name:          c.def.Name,
		CurTime:       c.curTime,
		Dt:            c.dt,
		PrevDt:        c.prevDt,
		Stepped:       c.stepped,
		Steps:         c.steps,
		NextID:        c.nextID,
		Particles:     c.store.Snapshot(),
		ControlPoints: c.cps.State(),
	}
	for ch := c.firstChild; ch != nil; ch = ch.next {
		st.Children = append(st.Children, ch.State())
	}
	return st
}

// RestoreState loads st into the collection. The tree shape and names must
// match the collection's definition.
func (c *Collection) RestoreState(st State) error {
	if err := c.checkShape(st); err != nil {
		return err
	}
	return c.restore(st)
}

func (c *Collection) checkShape(st State) error {
	if st.Name != c.def.Name {
		return fmt.Errorf("state is for effect %q, collection is %q", st.Name, c.def.Name)
	}
	children := c.Children()
	if len(st.Children) != len(children) {
		return fmt.Errorf("effect %s: state has %d children, collection has %d", c.def.Name, len(st.Children), len(children))
	}
	for i, ch := range children {
		if err := ch.checkShape(st.Children[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collection) restore(st State) error {
	if err := c.store.Restore(st.Particles); err != nil {
		return fmt.Errorf("failed to restore particles of %s: %w", c.def.Name, err)
	}
	c.curTime = st.CurTime
	c.dt = st.Dt
	c.prevDt = st.PrevDt
	c.stepped = st.Stepped
	c.steps = st.Steps
	c.nextID = st.NextID
	c.kills = c.kills[:0]
	c.cps.Restore(st.ControlPoints)

	i := 0
	for ch := c.firstChild; ch != nil; ch = ch.next {
		if err := ch.restore(st.Children[i]); err != nil {
			return err
		}
		i++
	}
	c.initContexts()
	return nil
}
