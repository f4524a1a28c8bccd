package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

// WriteFile writes contents to dir/name, creating parent directories, and returns the path.
func WriteFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	test.That(t, os.MkdirAll(filepath.Dir(path), 0o750), test.ShouldBeNil)
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
	return path
}

// ThreeLinkURDF is a robot with links base, link1 and link2, one revolute joint and one fixed
// joint. It has no mesh references.
const ThreeLinkURDF = `<?xml version="1.0"?>
<robot name="three_link">
  <link name="base">
    <visual><geometry><box size="0.2 0.2 0.1"/></geometry></visual>
  </link>
  <link name="link1">
    <visual><origin xyz="0 0 0.25"/><geometry><cylinder radius="0.03" length="0.5"/></geometry></visual>
  </link>
  <link name="link2">
    <visual><geometry><sphere radius="0.02"/></geometry></visual>
  </link>
  <joint name="joint1" type="revolute">
    <parent link="base"/>
    <child link="link1"/>
    <origin xyz="0 0 0.1"/>
    <axis xyz="0 0 1"/>
    <limit lower="-1.5" upper="1.5" effort="20" velocity="2"/>
  </joint>
  <joint name="flange" type="fixed">
    <parent link="link1"/>
    <child link="link2"/>
    <origin xyz="0 0 0.5"/>
  </joint>
</robot>
`

// WriteThreeLink writes ThreeLinkURDF to dir/name and returns its path.
func WriteThreeLink(t *testing.T, dir, name string) string {
	t.Helper()
	return WriteFile(t, dir, name, ThreeLinkURDF)
}
