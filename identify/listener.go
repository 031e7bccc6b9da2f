package identify

import (
	"sort"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

// SettleWindow is how long the listener waits for the player to stop
// pressing keys before naming what is held.
const SettleWindow = 500 * time.Millisecond

// Listener watches a MIDI in port and reports debounced candidate
// names for whatever is currently held down.
type Listener struct {
	mu      sync.Mutex
	pressed map[uint8]bool
	stop    func()
}

// Listen opens the in port and invokes cb with candidate names every
// time the held set settles. The slice is empty when fewer than two
// keys are held or no template matches.
func Listen(portNum int, cb func([]string)) (*Listener, error) {
	in, err := midi.InPort(portNum)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open MIDI in port %d", portNum)
	}

	l := &Listener{pressed: make(map[uint8]bool)}
	settle := debounce.New(SettleWindow)

	emit := func() {
		cb(Candidates(l.snapshot()))
	}

	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		var ch, key, vel uint8
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			l.mu.Lock()
			l.pressed[key] = true
			l.mu.Unlock()
			settle(emit)
		case msg.GetNoteEnd(&ch, &key):
			l.mu.Lock()
			delete(l.pressed, key)
			l.mu.Unlock()
			settle(emit)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not listen on MIDI in port")
	}

	l.stop = stop
	return l, nil
}

func (l *Listener) snapshot() []uint8 {
	l.mu.Lock()
	defer l.mu.Unlock()
	res := make([]uint8, 0, len(l.pressed))
	for key := range l.pressed {
		res = append(res, key)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

func (l *Listener) Close() {
	if l.stop != nil {
		l.stop()
	}
	midi.CloseDriver()
}
