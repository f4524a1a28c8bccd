package robots

// Names of the built-in robot types.
const (
	FrankaPanda = "franka_panda"
	UR5         = "ur5"
	KukaIiwa    = "kuka_iiwa"
)

func init() {
	Register(Type{Name: FrankaPanda, Description: "panda.urdf"})
	Register(Type{Name: UR5, Description: "ur5.urdf"})
	Register(Type{Name: KukaIiwa, Description: "iiwa14.urdf"})
}
