package peer

import "testing"

func TestState_Terminal(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateIdle, false},
		{StateJoined, false},
		{StateOffering, false},
		{StateAwaitingAnswer, false},
		{StateAnswering, false},
		{StateConnectedPending, false},
		{StateConnected, false},
		{StateDisconnected, true},
		{StateFailed, true},
		{StateClosed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}
