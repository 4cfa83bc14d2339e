package emit

import (
	"testing"

	"github.com/kforge/kforge/ir"
	"github.com/kforge/kforge/spirv"
	"github.com/stretchr/testify/require"
)

func TestEmitModule_FillKernel(t *testing.T) {
	tid := ir.NewVar("tid", ir.U32)
	body := ir.GPUThread(tid, 0, ir.Uint64(ir.U32, 0), ir.Uint64(ir.U32, 64),
		ir.NewStore("out", tid, ir.Float64(ir.F32, 1)))

	k := ir.NewKernel("fill", []ir.Buffer{{Name: "out", Elem: ir.F32, Device: true}}, ir.Dim3{X: 1}, ir.Dim3{X: 64})
	k.Body = body
	m := ir.NewModule("m").AddKernel(k)

	bin, descs, err := EmitModule(m, spirv.DefaultOptions())
	require.NoError(t, err)
	require.NotEmpty(t, bin)
	require.Len(t, descs, 1)
	require.Equal(t, "fill", descs[0].EntryPointName)
	require.Equal(t, uint32(1), descs[0].StorageBufferCount)
	require.Equal(t, uint32(0), descs[0].UniformBufferCount)
}

func TestEmitModule_ScalarAndDeviceArgsShareDescriptorSet(t *testing.T) {
	i := ir.NewVar("i", ir.U32)
	body := ir.GPUThread(i, 0, ir.Uint64(ir.U32, 0), ir.Uint64(ir.U32, 32),
		ir.NewStore("out", i, ir.NewLoad(ir.F32, "scale", ir.Int64(ir.I32, 0))))

	k := ir.NewKernel("scale_copy", []ir.Buffer{
		{Name: "scale", Elem: ir.F32, Device: false},
		{Name: "out", Elem: ir.F32, Device: true},
	}, ir.Dim3{X: 1}, ir.Dim3{X: 32})
	k.Body = body
	m := ir.NewModule("m").AddKernel(k)

	_, descs, err := EmitModule(m, spirv.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, descs, 1)
	require.Equal(t, uint32(1), descs[0].UniformBufferCount)
	require.Equal(t, uint32(1), descs[0].StorageBufferCount)
}

func TestEmitModule_SerialForLoop(t *testing.T) {
	iv := ir.NewVar("i", ir.U32)
	body := ir.NewFor(iv, ir.ForSerial, 0, ir.Uint64(ir.U32, 0), ir.Uint64(ir.U32, 4),
		ir.NewStore("out", iv, ir.Float64(ir.F32, 2)))

	k := ir.NewKernel("serial_fill", []ir.Buffer{{Name: "out", Elem: ir.F32, Device: true}}, ir.Dim3{X: 1}, ir.Dim3{X: 1})
	k.Body = body
	m := ir.NewModule("m").AddKernel(k)

	bin, _, err := EmitModule(m, spirv.DefaultOptions())
	require.NoError(t, err)
	require.NotEmpty(t, bin)
}
