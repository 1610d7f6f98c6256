// Package loader is the facade component: two command channels bound
// to the device's command and status ports, a background telemetry
// poller, and the high-level operations and derived accessors that
// consume them.
package loader

import (
	"encoding/binary"
	"log"
	"sync"
	"time"

	"github.com/newpro/autoloader/pkg/command"
	"github.com/newpro/autoloader/pkg/deviceerr"
	"github.com/newpro/autoloader/pkg/frame"
	"github.com/newpro/autoloader/pkg/telemetry"
	"github.com/newpro/autoloader/pkg/transport"
)

const (
	commandPort = 1234
	statusPort  = 1235

	defaultPrimary  = "autoloader"
	defaultFallback = "192.168.0.9"

	pollInterval = 500 * time.Millisecond

	getVersionTimeout     = 5 * time.Second
	homeTimeout           = 60 * time.Second
	loadTimeout           = 180 * time.Second
	loadCassetteTimeout   = 180 * time.Second
	evacTimeout           = 15 * time.Second
	clearLastErrorTimeout = 5 * time.Second
	stopTimeout           = 5 * time.Second
)

// Axis re-exports command.Axis so callers need only import this
// package for the common operations.
type Axis = command.Axis

const (
	Elevator   = command.Elevator
	LoaderAxis = command.Loader
	All        = command.All
)

// State is the facade's own lifetime, independent of each
// Connection's lazy connect/disconnect state.
type State int

const (
	Constructed State = iota
	Active
	Dormant
)

// Option configures a Loader at construction.
type Option func(*Loader)

// WithAddresses overrides the default [primary, fallback] address
// list shared by both the command and status connections.
func WithAddresses(addresses []string) Option {
	return func(l *Loader) { l.addresses = addresses }
}

// WithTelemetryBus attaches a sink the background poller mirrors each
// decoded snapshot to. Bus is any type exposing Mirror(Snapshot); the
// concrete *telemetrybus.Bus satisfies it without this package
// depending on Redis directly.
func WithTelemetryBus(bus TelemetryMirror) Option {
	return func(l *Loader) { l.bus = bus }
}

// TelemetryMirror is the subset of telemetrybus.Bus the poller drives.
type TelemetryMirror interface {
	Mirror(snapshot telemetry.Snapshot) error
}

// Loader is the host-side facade for one autoloader device: two
// command channels, a cached telemetry snapshot kept fresh by a
// background poller, and the high-level operations built on top.
type Loader struct {
	addresses []string

	cmdConn    *transport.Connection
	statusConn *transport.Connection
	cmdCh      *command.Channel
	statusCh   *command.Channel

	bus TelemetryMirror

	mu            sync.Mutex
	state         State
	version       uint16
	subVersion    uint16
	numberOfSlots uint32
	variant       telemetry.Variant
	lastSnapshot  telemetry.Snapshot
	haveSnapshot  bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New constructs a Loader. No network I/O happens until the first
// operation or Enter.
func New(opts ...Option) *Loader {
	l := &Loader{
		addresses: []string{defaultPrimary, defaultFallback},
		state:     Constructed,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.cmdConn = transport.New(l.addresses, commandPort, frame.Terminator)
	l.statusConn = transport.New(l.addresses, statusPort, frame.Terminator)
	l.cmdCh = command.New(l.cmdConn)
	l.statusCh = command.New(l.statusConn)

	return l
}

// Enter transitions Constructed/Dormant -> Active, starting the
// background status poller. Mirrors the source's __enter__.
func (l *Loader) Enter() error {
	l.mu.Lock()
	if l.state == Active {
		l.mu.Unlock()
		return nil
	}
	l.state = Active
	l.stopCh = make(chan struct{})
	l.mu.Unlock()

	if _, _, _, err := l.GetVersion(); err != nil {
		return err
	}

	l.wg.Add(1)
	go l.pollLoop(l.stopCh)
	return nil
}

// Exit transitions Active -> Dormant, stopping and joining the
// poller. Unlike the source's daemon thread, Exit blocks until the
// poller goroutine has actually returned.
func (l *Loader) Exit() {
	l.mu.Lock()
	if l.state != Active {
		l.mu.Unlock()
		return
	}
	l.state = Dormant
	stopCh := l.stopCh
	l.mu.Unlock()

	close(stopCh)
	l.wg.Wait()
}

func (l *Loader) pollLoop(stop <-chan struct{}) {
	defer l.wg.Done()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := l.refreshStatus(); err != nil {
				// The poller never escalates; log and try again next tick.
				log.Printf("autoloader: status poll failed: %v", err)
			}
		}
	}
}

func (l *Loader) refreshStatus() error {
	body, err := l.statusCh.Send(command.GetStatus, nil, stopTimeout)
	if err != nil {
		return err
	}

	l.mu.Lock()
	variant := l.variant
	bus := l.bus
	l.mu.Unlock()

	snap, _, err := telemetry.Decode(body, 2, variant)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.lastSnapshot = snap
	l.haveSnapshot = true
	l.mu.Unlock()

	if bus != nil {
		if err := bus.Mirror(snap); err != nil {
			log.Printf("autoloader: telemetry mirror failed: %v", err)
		}
	}
	return nil
}

// GetVersion issues GET_VERSION on the command channel and caches the
// result (version, sub-version, slot count, detected variant).
func (l *Loader) GetVersion() (version, subVersion uint16, numberOfSlots uint32, err error) {
	body, err := l.cmdCh.Send(command.GetVersion, nil, getVersionTimeout)
	if err != nil {
		return 0, 0, 0, err
	}
	if len(body) < 2+8 {
		return 0, 0, 0, deviceerr.New(deviceerr.InvalidResponseLength)
	}

	payload := body[2:]
	version = binary.LittleEndian.Uint16(payload[0:2])
	subVersion = binary.LittleEndian.Uint16(payload[2:4])
	numberOfSlots = binary.LittleEndian.Uint32(payload[4:8])

	l.mu.Lock()
	l.version = version
	l.subVersion = subVersion
	l.numberOfSlots = numberOfSlots
	l.variant = telemetry.VariantFromVersion(version)
	l.mu.Unlock()

	return version, subVersion, numberOfSlots, nil
}

// Home drives the named axis (or All) home. vacuumSafe gates whether
// the motion planner is allowed to assume vacuum is engaged.
func (l *Loader) Home(axis Axis, vacuumSafe bool) error {
	_, err := l.cmdCh.Send(command.Home, []byte{byte(axis), boolByte(vacuumSafe)}, homeTimeout)
	if err != nil {
		return err
	}
	return l.refreshStatus()
}

// Load moves the gripper to pick up or deposit at the given 1-based
// slot.
func (l *Loader) Load(slot int) error {
	_, err := l.cmdCh.Send(command.Load, []byte{byte(slot)}, loadTimeout)
	return err
}

// LoadCassette loads or unloads the cassette itself (the virtual slot
// one past the configured range).
func (l *Loader) LoadCassette(vacuumSafe bool) error {
	_, err := l.cmdCh.Send(command.LoadCassette, []byte{boolByte(vacuumSafe)}, loadCassetteTimeout)
	if err != nil {
		return err
	}
	return l.refreshStatus()
}

// Evac runs the evacuation sequence.
func (l *Loader) Evac() error {
	_, err := l.cmdCh.Send(command.Evac, nil, evacTimeout)
	return err
}

// ClearLastError clears the device's last-error latch.
func (l *Loader) ClearLastError() error {
	_, err := l.cmdCh.Send(command.ClearLastError, nil, clearLastErrorTimeout)
	return err
}

// Stop sends STOP on the status channel, so it can preempt a
// long-running motion command occupying the command channel. The two
// ignored (int, interface{}) parameters mirror a (signum, frame)
// signal-handler shape; Go's signal.Notify delivers signals on a
// channel instead, so a caller invokes Stop from the goroutine that
// receives them.
func (l *Loader) Stop(_ int, _ interface{}) error {
	_, err := l.statusCh.Send(command.Stop, nil, stopTimeout)
	return err
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// snapshot returns the most recently cached telemetry record and
// whether one has been decoded yet.
func (l *Loader) snapshot() (telemetry.Snapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSnapshot, l.haveSnapshot
}

// IsHomed reports whether both axes have a known absolute position.
func (l *Loader) IsHomed() bool {
	snap, ok := l.snapshot()
	if !ok {
		return false
	}
	return snap.Elevator.IsHomed() && snap.Loader.IsHomed()
}

// IsGripped reports whether the gripper currently holds a cassette.
func (l *Loader) IsGripped() bool {
	snap, ok := l.snapshot()
	if !ok {
		return false
	}
	return snap.Main.IsGripped()
}

// IndexLoaded returns the 1-based slot the gripper picked from, and
// whether anything is gripped at all.
func (l *Loader) IndexLoaded() (slot int, ok bool) {
	snap, have := l.snapshot()
	if !have || snap.Main.GrippedFromSlot == 0 {
		return 0, false
	}
	return int(snap.Main.GrippedFromSlot), true
}

// SlotState classifies the given 1-based slot.
func (l *Loader) SlotState(n int) telemetry.SlotState {
	snap, ok := l.snapshot()
	if !ok {
		return telemetry.Unknown
	}
	return snap.Main.SlotState(n)
}

// IsCassettePresent reports whether the cassette (the virtual slot
// one past number_of_slots) is present.
func (l *Loader) IsCassettePresent() bool {
	l.mu.Lock()
	slots := l.numberOfSlots
	l.mu.Unlock()
	return l.SlotState(int(slots)+1) == telemetry.Present
}

// LastError returns the device's last-reported error, tagged as known
// or raw.
func (l *Loader) LastError() deviceerr.LastError {
	snap, ok := l.snapshot()
	if !ok {
		return deviceerr.LastError{}
	}
	return snap.Main.LastError
}
