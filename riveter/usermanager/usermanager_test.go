package usermanager

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cm "github.com/riveterops/riveter/riveter/commandmanager"
)

type fakeCommandManager struct {
	responses map[string]cm.CommandResult
	calls     []string
}

func (f *fakeCommandManager) Run(_ context.Context, config cm.CommandConfig) (cm.CommandResult, error) {
	key := config.Command + " " + strings.Join(config.Args, " ")
	f.calls = append(f.calls, key)
	if result, ok := f.responses[key]; ok {
		return result, nil
	}
	return cm.CommandResult{ExitCode: 0}, nil
}

func TestGetParsesPasswdEntry(t *testing.T) {
	manager := &fakeCommandManager{responses: map[string]cm.CommandResult{
		"getent passwd fluent-bit": {
			STDOUT:   "fluent-bit:x:998:998:Fluent Bit:/var/lib/fluent-bit:/usr/sbin/nologin\n",
			ExitCode: 0,
		},
	}}
	um := NewLinuxUserManager(manager)

	user, exists, err := um.Get(context.Background(), "fluent-bit")
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, 998, user.UID)
	assert.Equal(t, "/var/lib/fluent-bit", user.HomeDir)
	assert.Equal(t, "/usr/sbin/nologin", user.Shell)
}

func TestGetUnknownUser(t *testing.T) {
	manager := &fakeCommandManager{responses: map[string]cm.CommandResult{
		"getent passwd fluent-bit": {ExitCode: 2},
	}}
	um := NewLinuxUserManager(manager)

	_, exists, err := um.Get(context.Background(), "fluent-bit")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEnsureServiceUserCreatesWhenAbsent(t *testing.T) {
	manager := &fakeCommandManager{responses: map[string]cm.CommandResult{
		"getent passwd fluent-bit": {ExitCode: 2},
	}}
	um := NewLinuxUserManager(manager)

	require.NoError(t, um.EnsureServiceUser(context.Background(), "fluent-bit", "/var/lib/fluent-bit"))

	found := false
	for _, call := range manager.calls {
		if strings.HasPrefix(call, "useradd --system") {
			found = true
			assert.Contains(t, call, "--shell /usr/sbin/nologin")
			assert.Contains(t, call, "--home-dir /var/lib/fluent-bit")
			assert.Contains(t, call, "fluent-bit")
		}
	}
	assert.True(t, found, "expected a useradd call")
}

func TestEnsureServiceUserSkipsWhenPresent(t *testing.T) {
	manager := &fakeCommandManager{responses: map[string]cm.CommandResult{
		"getent passwd fluent-bit": {
			STDOUT:   "fluent-bit:x:998:998::/var/lib/fluent-bit:/usr/sbin/nologin",
			ExitCode: 0,
		},
	}}
	um := NewLinuxUserManager(manager)

	require.NoError(t, um.EnsureServiceUser(context.Background(), "fluent-bit", ""))
	for _, call := range manager.calls {
		assert.NotContains(t, call, "useradd")
	}
}

func TestDeleteSkipsUnknownUser(t *testing.T) {
	manager := &fakeCommandManager{responses: map[string]cm.CommandResult{
		"getent passwd fluent-bit": {ExitCode: 2},
	}}
	um := NewLinuxUserManager(manager)

	require.NoError(t, um.Delete(context.Background(), "fluent-bit"))
	for _, call := range manager.calls {
		assert.NotContains(t, call, "userdel")
	}
}
