package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sempgateway/internal/models"

	"github.com/rs/zerolog"
)

// Notifier receives recommendation changes. Its result is logged and otherwise ignored.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n models.Notification) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n models.Notification) error {
	return f(ctx, n)
}

type entry struct {
	mu     sync.RWMutex
	device *models.Device
}

// notifyQueue holds the notifications of one device not yet delivered.
type notifyQueue struct {
	pending []models.Notification
}

// Registry is the in-memory authoritative store of all known devices.
//
// The device map is guarded by mu; each device by its own lock, so mutations of
// different devices run concurrently while mutations of one device serialise.
// Mutations work on a copy that replaces the stored device only on success.
// Reads return deep copies.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*entry
	order   []string

	notifier Notifier
	inflight sync.WaitGroup
	queueMu  sync.Mutex
	queues   map[string]*notifyQueue
	logger   zerolog.Logger
	now      func() time.Time
}

// NewRegistry creates an empty registry. A nil notifier disables notifications.
func NewRegistry(notifier Notifier) *Registry {
	return &Registry{
		devices:  make(map[string]*entry),
		queues:   make(map[string]*notifyQueue),
		notifier: notifier,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger zerolog.Logger) {
	r.logger = logger
}

// Get returns a copy of the device with the given id.
func (r *Registry) Get(id string) (*models.Device, error) {
	r.mu.RLock()
	e, ok := r.devices[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.device.DeepCopy(), nil
}

// GetAll returns copies of all devices in insertion order.
func (r *Registry) GetAll() []models.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]models.Device, 0, len(r.order))
	for _, id := range r.order {
		e := r.devices[id]
		e.mu.RLock()
		devices = append(devices, *e.device.DeepCopy())
		e.mu.RUnlock()
	}
	return devices
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Create registers a new device. Runtime state (windows, recommendation, power)
// on the argument is ignored.
func (r *Registry) Create(device models.Device) error {
	d := device.DeepCopy()
	if d.Status.Status == "" {
		d.Status.Status = models.StatusOff
	}
	if d.Info.MeasurementMethod == "" {
		d.Info.MeasurementMethod = models.MeasurementNone
	}
	d.PlanningWindows = nil
	d.LastRecommendation = nil
	d.LastPower = nil

	r.mu.Lock()
	defer r.mu.Unlock()

	// An existing id is a conflict whatever else the payload carries.
	if _, exists := r.devices[d.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDeviceExists, d.ID)
	}
	if err := ValidateDevice(d); err != nil {
		return err
	}
	if d.HookURL != "" {
		if err := ValidateHookURL(d.HookURL); err != nil {
			return err
		}
	}
	r.devices[d.ID] = &entry{device: d}
	r.order = append(r.order, d.ID)

	r.logger.Info().Str("device_id", d.ID).Str("name", d.Info.Name).Msg("device created")
	return nil
}

// Update applies the fields present in u to the device.
func (r *Registry) Update(id string, u models.DeviceUpdate) error {
	if err := ValidateUpdate(u); err != nil {
		return err
	}
	err := r.mutate(id, func(d *models.Device) error {
		if u.Name != nil {
			d.Info.Name = *u.Name
		}
		if u.InterruptionsAllowed != nil {
			d.Info.InterruptionsAllowed = *u.InterruptionsAllowed
		}
		if u.MaxPower != nil {
			d.Info.MaxPower = *u.MaxPower
		}
		if u.EMSignalsAccepted != nil {
			d.Status.EMSignalsAccepted = *u.EMSignalsAccepted
		}
		if u.Status != nil {
			d.Status.Status = *u.Status
		}
		if u.OptionalEnergy != nil {
			d.Info.OptionalEnergy = *u.OptionalEnergy
		}
		if u.MinOnTime != nil {
			d.Info.MinOnTime = copyInt(u.MinOnTime)
		}
		if u.MinOffTime != nil {
			d.Info.MinOffTime = copyInt(u.MinOffTime)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Info().Str("device_id", id).Msg("device updated")
	return nil
}

// Delete removes a device. Deleting an unknown id is a no-op.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[id]; !ok {
		return
	}
	delete(r.devices, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.logger.Info().Str("device_id", id).Msg("device deleted")
}

// AddPlanningWindow appends a validated timeframe to the device's planning windows.
func (r *Registry) AddPlanningWindow(id string, tf models.Timeframe) error {
	if err := ValidateTimeframe(tf); err != nil {
		return err
	}
	tf.AddedAt = r.now()
	return r.mutate(id, func(d *models.Device) error {
		d.PlanningWindows = append(d.PlanningWindows, tf)
		return nil
	})
}

// ClearPlanningWindows removes all planning windows of the device.
func (r *Registry) ClearPlanningWindows(id string) error {
	return r.mutate(id, func(d *models.Device) error {
		d.PlanningWindows = nil
		return nil
	})
}

// PlanningWindows returns a snapshot of the device's planning windows.
func (r *Registry) PlanningWindows(id string) ([]models.Timeframe, error) {
	d, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if d.PlanningWindows == nil {
		return []models.Timeframe{}, nil
	}
	return d.PlanningWindows, nil
}

// SetLastPower overwrites the last measured power of the device.
func (r *Registry) SetLastPower(id string, p models.PowerReading) error {
	if p.MeasuredAt.IsZero() {
		p.MeasuredAt = r.now()
	}
	return r.mutate(id, func(d *models.Device) error {
		d.LastPower = &p
		return nil
	})
}

// SetHook sets the notification target of the device.
func (r *Registry) SetHook(id, hookURL string) error {
	if err := ValidateHookURL(hookURL); err != nil {
		return err
	}
	return r.mutate(id, func(d *models.Device) error {
		d.HookURL = hookURL
		return nil
	})
}

// ClearHook removes the notification target of the device.
func (r *Registry) ClearHook(id string) error {
	return r.mutate(id, func(d *models.Device) error {
		d.HookURL = ""
		return nil
	})
}

// Recommendation returns the last recommendation stored for the device.
func (r *Registry) Recommendation(id string) (*models.Recommendation, error) {
	d, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if d.LastRecommendation == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoRecommendation, id)
	}
	return d.LastRecommendation, nil
}

// ApplyControl stores the directive as the device's recommendation and switches
// its status accordingly. Notifications of one device are delivered in commit
// order, outside every registry lock, and their outcome never reaches the caller.
func (r *Registry) ApplyControl(directive models.ControlDirective) error {
	err := r.mutate(directive.DeviceID, func(d *models.Device) error {
		rec := models.Recommendation{
			DeviceID:         directive.DeviceID,
			On:               directive.On,
			RecommendedPower: directive.RecommendedPower,
			Timestamp:        directive.Timestamp,
			ReceivedAt:       r.now(),
		}
		d.LastRecommendation = &rec
		if directive.On {
			d.Status.Status = models.StatusOn
		} else {
			d.Status.Status = models.StatusOff
		}
		// Queued under the device lock so queue order equals commit order.
		r.enqueue(models.Notification{DeviceID: d.ID, HookURL: d.HookURL, Recommendation: rec})
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Debug().
		Str("device_id", directive.DeviceID).
		Bool("on", directive.On).
		Int("recommended_power", directive.RecommendedPower).
		Msg("control applied")
	return nil
}

// Drain blocks until all dispatched notifications have returned.
func (r *Registry) Drain() {
	r.inflight.Wait()
}

// enqueue appends n to its device queue and starts a delivery goroutine when
// none is running for that device.
func (r *Registry) enqueue(n models.Notification) {
	if r.notifier == nil {
		return
	}
	r.queueMu.Lock()
	defer r.queueMu.Unlock()

	q, running := r.queues[n.DeviceID]
	if !running {
		q = &notifyQueue{}
		r.queues[n.DeviceID] = q
	}
	q.pending = append(q.pending, n)
	if !running {
		r.inflight.Add(1)
		go r.deliver(n.DeviceID, q)
	}
}

// deliver drains one device queue in order and exits once it is empty.
func (r *Registry) deliver(id string, q *notifyQueue) {
	defer r.inflight.Done()
	for {
		r.queueMu.Lock()
		if len(q.pending) == 0 {
			delete(r.queues, id)
			r.queueMu.Unlock()
			return
		}
		n := q.pending[0]
		q.pending = q.pending[1:]
		r.queueMu.Unlock()

		if err := r.notifier.Notify(context.Background(), n); err != nil {
			r.logger.Warn().Err(err).Str("device_id", n.DeviceID).Msg("notification failed")
		}
	}
}

// mutate runs fn on a copy of the device under the device lock and stores the
// copy only when fn succeeds.
func (r *Registry) mutate(id string, fn func(d *models.Device) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.devices[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	updated := e.device.DeepCopy()
	if err := fn(updated); err != nil {
		return err
	}
	e.device = updated
	return nil
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
