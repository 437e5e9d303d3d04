package calibrate_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"sophiatech.io/serialterm/calibrate"
	"sophiatech.io/serialterm/device"
	"sophiatech.io/serialterm/schema"
)

var (
	logLevel = schema.ParamDef{
		Key:    "loglevel",
		Label:  "Log level",
		Kind:   schema.KindChoice,
		Access: schema.AccessGetSet,
		Choices: []schema.Choice{
			{Key: "1", Label: "debug"},
			{Key: "2", Label: "info"},
		},
	}
	reboot  = schema.ParamDef{Key: "reboot", Kind: schema.KindText, Access: schema.AccessSet}
	version = schema.ParamDef{Key: "version", Kind: schema.KindText, Access: schema.AccessGet}
	apn     = schema.ParamDef{Key: "apn", Kind: schema.KindText, Access: schema.AccessGetSet}
)

func TestGet(t *testing.T) {
	t.Run("Choice maps the last token of the reply", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ch := calibrate.NewMockChannel(ctrl)
		ch.EXPECT().DoGet("SYS", "loglevel").Return("loglevel = 2", nil)

		r, err := calibrate.New(ch).Get("SYS", logLevel)
		require.NoError(t, err)
		assert.Equal(t, "2", r.Value)
		require.NotNil(t, r.Choice)
		assert.Equal(t, "info", r.Choice.Label)
	})

	t.Run("Unknown choice key", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ch := calibrate.NewMockChannel(ctrl)
		ch.EXPECT().DoGet("SYS", "loglevel").Return("7", nil)

		r, err := calibrate.New(ch).Get("SYS", logLevel)
		require.NoError(t, err)
		assert.Equal(t, "7", r.Value)
		assert.Nil(t, r.Choice)
	})

	t.Run("Text returns the reply", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ch := calibrate.NewMockChannel(ctrl)
		ch.EXPECT().DoGet("SYS", "version").Return("v1.2 build 7", nil)

		r, err := calibrate.New(ch).Get("SYS", version)
		require.NoError(t, err)
		assert.Equal(t, "v1.2 build 7", r.Value)
	})

	t.Run("Set-only parameter cannot be read", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ch := calibrate.NewMockChannel(ctrl)

		_, err := calibrate.New(ch).Get("SYS", reboot)
		assert.ErrorIs(t, err, calibrate.ErrAccess)
	})

	t.Run("Channel error is wrapped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ch := calibrate.NewMockChannel(ctrl)
		ch.EXPECT().DoGet("SYS", "version").Return(device.OfflineGet, device.ErrOffline)

		r, err := calibrate.New(ch).Get("SYS", version)
		assert.ErrorIs(t, err, device.ErrOffline)
		assert.Equal(t, device.OfflineGet, r.Reply)
	})
}

func TestSet(t *testing.T) {
	t.Run("Choice label is sent as its key", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ch := calibrate.NewMockChannel(ctrl)
		ch.EXPECT().DoSet("SYS", "loglevel", "1", false).Return("OK", nil)

		reply, err := calibrate.New(ch).Set("SYS", logLevel, "debug")
		require.NoError(t, err)
		assert.Equal(t, "OK", reply)
	})

	t.Run("Choice key is sent as is", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ch := calibrate.NewMockChannel(ctrl)
		ch.EXPECT().DoSet("SYS", "loglevel", "2", false).Return("OK", nil)

		_, err := calibrate.New(ch).Set("SYS", logLevel, " 2 ")
		require.NoError(t, err)
	})

	t.Run("Set-only without value is bare", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ch := calibrate.NewMockChannel(ctrl)
		ch.EXPECT().DoSet("SYS", "reboot", "", true).Return("rebooting", nil)

		reply, err := calibrate.New(ch).Set("SYS", reboot, "")
		require.NoError(t, err)
		assert.Equal(t, "rebooting", reply)
	})

	t.Run("Value required otherwise", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ch := calibrate.NewMockChannel(ctrl)

		_, err := calibrate.New(ch).Set("GSM", apn, "  ")
		assert.ErrorIs(t, err, calibrate.ErrValueRequired)
	})

	t.Run("Get-only parameter cannot be written", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ch := calibrate.NewMockChannel(ctrl)

		_, err := calibrate.New(ch).Set("SYS", version, "2")
		assert.ErrorIs(t, err, calibrate.ErrAccess)
	})
}

func TestGetAll(t *testing.T) {
	module := schema.Module{Name: "SYS", Params: []schema.ParamDef{logLevel, reboot, version}}

	t.Run("Reads readable parameters in order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ch := calibrate.NewMockChannel(ctrl)
		ch.EXPECT().Online().Return(true)
		gomock.InOrder(
			ch.EXPECT().DoGet("SYS", "loglevel").Return("1", nil),
			ch.EXPECT().DoGet("SYS", "version").Return("", errors.New("garbled")),
		)

		results, err := calibrate.New(ch).GetAll(module)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "loglevel", results[0].Key)
		assert.NoError(t, results[0].Err)
		require.NotNil(t, results[0].Choice)
		assert.Equal(t, "debug", results[0].Choice.Label)
		assert.Equal(t, "version", results[1].Key)
		assert.Error(t, results[1].Err)
	})

	t.Run("Offline", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ch := calibrate.NewMockChannel(ctrl)
		ch.EXPECT().Online().Return(false)

		_, err := calibrate.New(ch).GetAll(module)
		assert.ErrorIs(t, err, device.ErrOffline)
	})
}

func TestSetAll(t *testing.T) {
	module := schema.Module{Name: "SYS", Params: []schema.ParamDef{logLevel, reboot, version, apn}}

	ctrl := gomock.NewController(t)
	ch := calibrate.NewMockChannel(ctrl)
	ch.EXPECT().Online().Return(true)
	gomock.InOrder(
		ch.EXPECT().DoSet("SYS", "loglevel", "2", false).Return("OK", nil),
		ch.EXPECT().DoSet("SYS", "reboot", "", true).Return("OK", nil),
	)

	results, err := calibrate.New(ch).SetAll(module, map[string]string{"loglevel": "info"})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"loglevel", "reboot", "apn"}, []string{results[0].Key, results[1].Key, results[2].Key})
	assert.ErrorIs(t, results[2].Err, calibrate.ErrValueRequired)
}
