package operators

import (
	"github.com/gonewx/particleops/pkg/attribute"
	"github.com/gonewx/particleops/pkg/particles"
)

func pFloat(name, def string) particles.ParamDef {
	return particles.ParamDef{Name: name, Type: particles.ParamFloat, Default: def}
}

func pInt(name, def string) particles.ParamDef {
	return particles.ParamDef{Name: name, Type: particles.ParamInt, Default: def}
}

func pBool(name, def string) particles.ParamDef {
	return particles.ParamDef{Name: name, Type: particles.ParamBool, Default: def}
}

func pVec(name, def string) particles.ParamDef {
	return particles.ParamDef{Name: name, Type: particles.ParamVector, Default: def}
}

func pColor(name, def string) particles.ParamDef {
	return particles.ParamDef{Name: name, Type: particles.ParamColor, Default: def}
}

func pCP(name, def string) particles.ParamDef {
	return particles.ParamDef{Name: name, Type: particles.ParamControlPoint, Default: def}
}

func scalarRandomFactory(name string, field attribute.Kind, lo, hi string) particles.Factory {
	return particles.Factory{
		Name:  name,
		Class: particles.ClassInitializer,
		Params: []particles.ParamDef{
			pFloat("min", lo),
			pFloat("max", hi),
			pFloat("exponent", "1"),
		},
		Help: "sets " + field.String() + " to a random value in [min, max]",
		New:  scalarInitializer(name, field),
	}
}

// Factories returns every built-in unit factory.
func Factories() []particles.Factory {
	return []particles.Factory{
		// emitters
		{
			Name:   "instantaneous_emitter",
			Class:  particles.ClassEmitter,
			Params: []particles.ParamDef{pInt("num_to_emit", "100"), pFloat("start_time", "0")},
			Help:   "emits num_to_emit particles once at start_time",
			New:    newInstantaneousEmitter,
		},
		{
			Name:  "continuous_emitter",
			Class: particles.ClassEmitter,
			Params: []particles.ParamDef{
				pFloat("emission_rate", "100"),
				{Name: "emission_duration", Type: particles.ParamFloat, Default: "0", Help: "0 emits forever"},
				pFloat("start_time", "0"),
			},
			Help: "emits emission_rate particles per second",
			New:  newContinuousEmitter,
		},
		{
			Name:  "emit_from_parent_particles",
			Class: particles.ClassEmitter,
			Params: []particles.ParamDef{
				{Name: "emission_rate", Type: particles.ParamFloat, Default: "10", Help: "children per parent per second"},
				pBool("scale_by_speed", "0"),
				pFloat("speed_scale", "1"),
				pFloat("inherit_velocity", "0"),
			},
			Help: "emits children along the motion of every parent particle",
			New:  newEmitFromParentParticles,
		},

		// initializers
		scalarRandomFactory("lifetime_random", attribute.LifeDuration, "1", "1"),
		scalarRandomFactory("radius_random", attribute.Radius, "1", "1"),
		scalarRandomFactory("alpha_random", attribute.Alpha, "1", "1"),
		{
			Name:   "color_random",
			Class:  particles.ClassInitializer,
			Params: []particles.ParamDef{pColor("color1", "255 255 255"), pColor("color2", "255 255 255")},
			New:    newColorRandom,
		},
		{
			Name:  "rotation_random",
			Class: particles.ClassInitializer,
			Params: []particles.ParamDef{
				pFloat("rotation_initial", "0"),
				pFloat("rotation_offset_min", "0"),
				pFloat("rotation_offset_max", "360"),
				pFloat("speed_min", "0"),
				pFloat("speed_max", "0"),
			},
			Help: "angles in degrees",
			New:  newRotationRandom,
		},
		{
			Name:  "position_within_sphere",
			Class: particles.ClassInitializer,
			Params: []particles.ParamDef{
				pCP("control_point", "0"),
				pFloat("distance_min", "0"),
				pFloat("distance_max", "0"),
				pVec("distance_bias", "1 1 1"),
				pFloat("speed_min", "0"),
				pFloat("speed_max", "0"),
				pVec("local_speed_min", "0 0 0"),
				pVec("local_speed_max", "0 0 0"),
			},
			New: newPositionWithinSphere,
		},
		{
			Name:   "position_on_hitbox",
			Class:  particles.ClassInitializer,
			Params: []particles.ParamDef{pCP("control_point", "0")},
			New:    newPositionOnHitBox,
		},
		{
			Name:  "velocity_random",
			Class: particles.ClassInitializer,
			Params: []particles.ParamDef{
				pCP("control_point", "0"),
				pFloat("speed_min", "0"),
				pFloat("speed_max", "0"),
				pVec("local_min", "0 0 0"),
				pVec("local_max", "0 0 0"),
			},
			New: newVelocityRandom,
		},

		// operators
		{
			Name:  "basic_movement",
			Class: particles.ClassOperator,
			Params: []particles.ParamDef{
				pVec("gravity", "0 0 0"),
				pFloat("drag", "0"),
				pInt("max_constraint_passes", "3"),
			},
			Help: "Verlet integration; runs the definition's forces and constraints",
			New:  newBasicMovement,
		},
		{
			Name:  "lifespan_decay",
			Class: particles.ClassOperator,
			New:   newLifespanDecay,
		},
		{
			Name:   "velocity_decay",
			Class:  particles.ClassOperator,
			Params: []particles.ParamDef{pFloat("min_velocity", "1")},
			New:    newVelocityDecay,
		},
		{
			Name:  "random_cull",
			Class: particles.ClassOperator,
			Params: []particles.ParamDef{
				pFloat("cull_percentage", "0.5"),
				pFloat("cull_start", "0"),
				pFloat("cull_end", "1"),
				pFloat("cull_exponent", "1"),
			},
			New: newRandomCull,
		},
		{
			Name:  "plane_cull",
			Class: particles.ClassOperator,
			Params: []particles.ParamDef{
				pCP("control_point", "0"),
				pFloat("offset", "0"),
				pVec("normal", "0 0 1"),
				pBool("local_space", "0"),
			},
			New: newPlaneCull,
		},
		{
			Name:  "model_cull",
			Class: particles.ClassOperator,
			Params: []particles.ParamDef{
				pCP("control_point", "0"),
				pBool("bounding_box_only", "0"),
				pBool("cull_outside", "0"),
			},
			New: newModelCull,
		},
		{
			Name:  "alpha_fade",
			Class: particles.ClassOperator,
			Params: []particles.ParamDef{
				pFloat("start_time", "0"),
				pFloat("end_time", "1"),
				pFloat("target", "0"),
				pBool("ease_in_out", "0"),
			},
			Help: "times are fractions of particle life",
			New:  newAlphaFade,
		},
		{
			Name:  "fade_in_random",
			Class: particles.ClassOperator,
			Params: []particles.ParamDef{
				pFloat("fade_in_time_min", "0.25"),
				pFloat("fade_in_time_max", "0.25"),
				pFloat("fade_in_time_exp", "1"),
				pBool("proportional", "1"),
			},
			New: newFadeInRandom,
		},
		{
			Name:  "fade_out_random",
			Class: particles.ClassOperator,
			Params: []particles.ParamDef{
				pFloat("fade_out_time_min", "0.25"),
				pFloat("fade_out_time_max", "0.25"),
				pFloat("fade_out_time_exp", "1"),
				pBool("proportional", "1"),
				pBool("ease_in_and_out", "1"),
			},
			New: newFadeOutRandom,
		},
		{
			Name:  "color_interpolate",
			Class: particles.ClassOperator,
			Params: []particles.ParamDef{
				pColor("color_fade", "255 255 255"),
				pFloat("fade_start_time", "0"),
				pFloat("fade_end_time", "1"),
				pBool("ease_in_out", "0"),
			},
			New: newColorInterpolate,
		},
		{
			Name:  "radius_scale",
			Class: particles.ClassOperator,
			Params: []particles.ParamDef{
				pFloat("start_time", "0"),
				pFloat("end_time", "1"),
				pFloat("start_scale", "1"),
				pFloat("end_scale", "1"),
				pFloat("scale_bias", "0.5"),
				pBool("ease_in_out", "0"),
			},
			New: newRadiusScale,
		},
		{
			Name:  "spin",
			Class: particles.ClassOperator,
			Params: []particles.ParamDef{
				pFloat("spin_rate_degrees", "0"),
				{Name: "spin_stop_time", Type: particles.ParamFloat, Default: "0", Help: "0 spins for the whole life"},
				pBool("random_direction", "0"),
			},
			New: newSpin,
		},
		{
			Name:  "scalar_keyframes",
			Class: particles.ClassOperator,
			Params: []particles.ParamDef{
				{Name: "output_field", Type: particles.ParamAttribute, Default: "radius", Help: "scalar attribute to write"},
				{Name: "curve", Type: particles.ParamCurve, Default: "0,1 1,1", Help: "keyframes over normalized age"},
				pBool("scale_initial", "1"),
			},
			New: newScalarKeyframes,
		},
		{
			Name:  "position_lock",
			Class: particles.ClassOperator,
			Params: []particles.ParamDef{
				pCP("control_point", "0"),
				pBool("lock_rotation", "0"),
				pFloat("start_fadeout_min", "1"),
				pFloat("start_fadeout_max", "1"),
				{Name: "end_fadeout_min", Type: particles.ParamFloat, Default: "0", Help: "0 disables the age fade"},
				pFloat("end_fadeout_max", "0"),
				pFloat("fadeout_exponent", "1"),
				{Name: "range", Type: particles.ParamFloat, Default: "0", Help: "0 locks at any distance"},
				pFloat("range_bias", "0.5"),
			},
			New: newPositionLock,
		},
		{
			Name:  "lock_to_bone",
			Class: particles.ClassOperator,
			Params: []particles.ParamDef{
				pCP("control_point", "0"),
				pFloat("lifetime_fade_start", "0"),
				{Name: "lifetime_fade_end", Type: particles.ParamFloat, Default: "0", Help: "0 never fades"},
			},
			New: newLockToBone,
		},
		{
			Name:  "distance_to_cp",
			Class: particles.ClassOperator,
			Params: append(remapParams([2]string{"0", "128"}, [2]string{"0", "1"}, "radius"),
				pCP("control_point", "0"),
				pBool("los_check", "0"),
				pInt("los_collision_mask", "0"),
				pFloat("los_failure_scale", "0"),
			),
			New: newDistanceToCP,
		},
		{
			Name:  "distance_between_cps",
			Class: particles.ClassOperator,
			Params: append(remapParams([2]string{"0", "128"}, [2]string{"0", "1"}, "radius"),
				pCP("start_cp", "0"),
				pCP("end_cp", "1"),
			),
			New: newDistanceBetweenCPs,
		},
		{
			Name:  "remap_dot_product_to_scalar",
			Class: particles.ClassOperator,
			Params: append(remapParams([2]string{"-1", "1"}, [2]string{"0", "1"}, "radius"),
				pCP("input_cp1", "0"),
				pCP("input_cp2", "0"),
				pBool("use_particle_velocity", "0"),
			),
			New: newRemapDotProduct,
		},
		{
			Name:  "maintain_sequential_path",
			Class: particles.ClassOperator,
			Params: []particles.ParamDef{
				pCP("start_cp", "0"),
				pCP("end_cp", "1"),
				pFloat("particles_to_map_full_path", "100"),
				pBool("loop", "0"),
				pBool("bounce", "0"),
				pFloat("bulge", "0"),
				pFloat("mid_point", "0.5"),
				pFloat("cohesion_strength", "1"),
				pFloat("tolerance", "0"),
			},
			New: newMaintainSequentialPath,
		},
		{
			Name:  "set_child_control_points",
			Class: particles.ClassOperator,
			Params: []particles.ParamDef{
				pCP("first_control_point", "1"),
				pInt("num_control_points", "1"),
				pInt("first_particle", "0"),
				pBool("set_orientation", "0"),
			},
			New: newSetChildControlPoints,
		},
		{
			Name:   "control_point_light",
			Class:  particles.ClassOperator,
			Params: lightParamDefs(),
			New:    newControlPointLight,
		},

		// forces
		{
			Name:   "random_force",
			Class:  particles.ClassForce,
			Params: []particles.ParamDef{pVec("min_force", "0 0 0"), pVec("max_force", "0 0 0")},
			New:    newRandomForce,
		},
		{
			Name:  "attract_to_cp",
			Class: particles.ClassForce,
			Params: []particles.ParamDef{
				pCP("control_point", "0"),
				pFloat("amount", "100"),
				pFloat("falloff_power", "2"),
			},
			New: newAttractToCP,
		},
		{
			Name:  "twist_around_axis",
			Class: particles.ClassForce,
			Params: []particles.ParamDef{
				pCP("control_point", "0"),
				pFloat("amount", "100"),
				pVec("axis", "0 0 1"),
				pBool("local_space", "0"),
			},
			New: newTwistAroundAxis,
		},

		// constraints
		{
			Name:  "constrain_distance",
			Class: particles.ClassConstraint,
			Params: []particles.ParamDef{
				pCP("control_point", "0"),
				pFloat("min_distance", "0"),
				pFloat("max_distance", "100"),
				pVec("offset", "0 0 0"),
				pBool("global_center", "0"),
			},
			New: newConstrainDistance,
		},
		{
			Name:  "planar_constraint",
			Class: particles.ClassConstraint,
			Params: []particles.ParamDef{
				pCP("control_point", "0"),
				pVec("point", "0 0 0"),
				pVec("normal", "0 0 1"),
				pBool("global_origin", "0"),
			},
			New: newPlanarConstraint,
		},
		{
			Name:  "world_trace_constraint",
			Class: particles.ClassConstraint,
			Params: []particles.ParamDef{
				pInt("collision_mask", "1"),
				pInt("collision_group", "0"),
				pFloat("bounce", "0"),
				pFloat("slide", "0"),
				pBool("kill_on_contact", "0"),
				pFloat("surface_offset", "0"),
			},
			New: newWorldTraceConstraint,
		},
	}
}

// NewRegistry returns a registry holding every built-in unit.
func NewRegistry() *particles.Registry {
	r := particles.NewRegistry()
	r.MustRegister(Factories()...)
	return r
}
