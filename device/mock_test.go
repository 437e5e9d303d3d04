package device_test

import (
	"sync"

	gomock "go.uber.org/mock/gomock"

	"sophiatech.io/serialterm/device"
)

// MockSequenceBuilder records the exact lines a shell exchange must write.
// Every expected write queues the device's reply, which the following
// reads return.
type MockSequenceBuilder struct {
	port    *device.MockPort
	calls   []any
	mu      sync.Mutex
	pending []byte
}

func NewMockSequence(port *device.MockPort) *MockSequenceBuilder {
	b := &MockSequenceBuilder{port: port}
	port.EXPECT().IsOpen().Return(true).AnyTimes()
	port.EXPECT().Flush().Return(nil).AnyTimes()
	port.EXPECT().Read(gomock.Any()).DoAndReturn(b.read).AnyTimes()
	return b
}

func (b *MockSequenceBuilder) read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := copy(p, b.pending)
	b.pending = b.pending[n:]
	return n, nil
}

func (b *MockSequenceBuilder) expect(line, reply string) *MockSequenceBuilder {
	wire := []byte(line + "\r\n")
	b.calls = append(b.calls,
		b.port.EXPECT().Write(wire).DoAndReturn(func(p []byte) (int, error) {
			b.mu.Lock()
			b.pending = append(b.pending, reply...)
			b.mu.Unlock()
			return len(p), nil
		}),
	)
	return b
}

func (b *MockSequenceBuilder) CdRoot() *MockSequenceBuilder {
	return b.expect("cd /", "cd /\r\nroot@menzu:/# ")
}

func (b *MockSequenceBuilder) Cd(path string) *MockSequenceBuilder {
	return b.expect("cd "+path, "cd "+path+"\r\nroot/"+path+"> ")
}

func (b *MockSequenceBuilder) Get(key, value string) *MockSequenceBuilder {
	return b.expect("get "+key, "get "+key+"\r\n"+value+"\r\nroot/> ")
}

func (b *MockSequenceBuilder) Set(cmd, reply string) *MockSequenceBuilder {
	return b.expect(cmd, reply)
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}
