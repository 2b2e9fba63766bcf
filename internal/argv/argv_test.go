package argv

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/lchen64/pid-diffusion/internal/config"
)

func TestFormatValue_PythonLiterals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kind config.FlagKind
		val  cty.Value
		want string
	}{
		{"bool true", config.KindBool, cty.True, "True"},
		{"bool false", config.KindBool, cty.False, "False"},
		{"int", config.KindInt, cty.NumberIntVal(250), "250"},
		{"int zero", config.KindInt, cty.NumberIntVal(0), "0"},
		{"float fraction", config.KindFloat, cty.NumberFloatVal(0.5), "0.5"},
		{"float small", config.KindFloat, cty.NumberFloatVal(0.0001), "0.0001"},
		{"float whole keeps decimal", config.KindFloat, cty.NumberFloatVal(0), "0.0"},
		{"string", config.KindString, cty.StringVal("lpips"), "lpips"},
		{"string list", config.KindStringList,
			cty.ListVal([]cty.Value{cty.StringVal("0.999"), cty.StringVal("0.9999")}),
			"0.999,0.9999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := FormatValue(tt.kind, tt.val)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFormatValue_RejectsFractionalInt(t *testing.T) {
	t.Parallel()

	_, err := FormatValue(config.KindInt, cty.NumberFloatVal(1.5))
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected an integer")
}

func TestFormatValue_RejectsNull(t *testing.T) {
	t.Parallel()

	_, err := FormatValue(config.KindString, cty.NullVal(cty.String))
	require.Error(t, err)
}

func testTrainer() *config.TrainerDefinition {
	defaultNorm := cty.StringVal("lpips")
	return &config.TrainerDefinition{
		Type:       "cm_train",
		Entrypoint: "cm_train.py",
		Flags: []*config.FlagDefinition{
			{Name: "training_mode", Kind: config.KindString, Required: true},
			{Name: "start_ema", Kind: config.KindFloat},
			{Name: "loss_norm", Kind: config.KindString, Default: &defaultNorm},
			{Name: "use_fp16", Kind: config.KindBool},
		},
	}
}

func TestBuild_ManifestOrderAndDefaults(t *testing.T) {
	t.Parallel()

	// Values are deliberately given out of manifest order; the vector
	// must still follow the manifest.
	values := map[string]cty.Value{
		"use_fp16":      cty.True,
		"training_mode": cty.StringVal("one_shot_pinn_edm_edm"),
		"start_ema":     cty.NumberFloatVal(0.5),
	}

	args, err := Build(testTrainer(), values)
	require.NoError(t, err)
	require.Equal(t, []string{
		"--training_mode", "one_shot_pinn_edm_edm",
		"--start_ema", "0.5",
		"--loss_norm", "lpips",
		"--use_fp16", "True",
	}, args)
}

func TestBuild_OmitsUnsetOptionalFlags(t *testing.T) {
	t.Parallel()

	values := map[string]cty.Value{
		"training_mode": cty.StringVal("consistency_distillation"),
	}

	args, err := Build(testTrainer(), values)
	require.NoError(t, err)
	// start_ema and use_fp16 have no defaults, so they are absent.
	require.Equal(t, []string{
		"--training_mode", "consistency_distillation",
		"--loss_norm", "lpips",
	}, args)
}

func TestBuild_MissingRequiredFlag(t *testing.T) {
	t.Parallel()

	_, err := Build(testTrainer(), map[string]cty.Value{})
	require.Error(t, err)
	require.Contains(t, err.Error(), `missing required flag "training_mode"`)
}

func TestBuild_RejectsUnknownFlag(t *testing.T) {
	t.Parallel()

	values := map[string]cty.Value{
		"training_mode": cty.StringVal("x"),
		"warp_factor":   cty.NumberIntVal(9),
	}
	_, err := Build(testTrainer(), values)
	require.Error(t, err)
	require.Contains(t, err.Error(), `does not define a flag named "warp_factor"`)
}

func TestBuild_Deterministic(t *testing.T) {
	t.Parallel()

	values := map[string]cty.Value{
		"training_mode": cty.StringVal("one_shot_pinn_edm_edm"),
		"start_ema":     cty.NumberFloatVal(0.5),
		"use_fp16":      cty.True,
	}

	first, err := Build(testTrainer(), values)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Build(testTrainer(), values)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}
