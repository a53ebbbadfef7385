// Package memory implements the persistence ports in process. Transactions
// are serialized and work on a copy of the tables that replaces the committed
// copy only when the callback succeeds.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"cmms-engine/internal/core/domain"
	"cmms-engine/internal/core/ports"
)

type tables struct {
	workOrders     map[string]domain.WorkOrder
	workOrderParts map[string]domain.WorkOrderPart
	schedules      map[string]domain.MaintenanceSchedule
	parts          map[string]domain.Part
	movements      []domain.StockMovement
	requests       map[string]domain.PartRequest
	events         []domain.WorkOrderEvent
	assets         map[string]struct{}
	technicians    map[string]struct{}
}

func newTables() *tables {
	return &tables{
		workOrders:     map[string]domain.WorkOrder{},
		workOrderParts: map[string]domain.WorkOrderPart{},
		schedules:      map[string]domain.MaintenanceSchedule{},
		parts:          map[string]domain.Part{},
		requests:       map[string]domain.PartRequest{},
		assets:         map[string]struct{}{},
		technicians:    map[string]struct{}{},
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.workOrders {
		c.workOrders[k] = v
	}
	for k, v := range t.workOrderParts {
		c.workOrderParts[k] = v
	}
	for k, v := range t.schedules {
		c.schedules[k] = v
	}
	for k, v := range t.parts {
		c.parts[k] = v
	}
	for k, v := range t.requests {
		c.requests[k] = v
	}
	for k := range t.assets {
		c.assets[k] = struct{}{}
	}
	for k := range t.technicians {
		c.technicians[k] = struct{}{}
	}
	c.movements = append([]domain.StockMovement(nil), t.movements...)
	c.events = append([]domain.WorkOrderEvent(nil), t.events...)
	return c
}

// Store is an in-memory ports.UnitOfWork.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *tables
}

var _ ports.UnitOfWork = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: newTables()}
}

// AddAsset registers an asset id so existence checks pass.
func (s *Store) AddAsset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.assets[id] = struct{}{}
}

// AddTechnician registers a technician id so existence checks pass.
func (s *Store) AddTechnician(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.technicians[id] = struct{}{}
}

// PutPart inserts or replaces a spare part in the stock ledger.
func (s *Store) PutPart(p domain.Part) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Version == 0 {
		p.Version = 1
	}
	s.data.parts[p.ID] = p
}

// WithinTx implements ports.UnitOfWork.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	work := s.data.clone()
	s.mu.RUnlock()

	if err := fn(ctx, &view{mu: &sync.RWMutex{}, t: work}); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = work
	s.mu.Unlock()
	return nil
}

func (s *Store) committed() *view {
	return &view{mu: &s.mu, t: nil, store: s}
}

// WorkOrders implements ports.Repositories outside a transaction.
func (s *Store) WorkOrders() ports.WorkOrderRepository { return workOrderRepo{s.committed()} }

// WorkOrderParts implements ports.Repositories outside a transaction.
func (s *Store) WorkOrderParts() ports.WorkOrderPartRepository {
	return workOrderPartRepo{s.committed()}
}

// Schedules implements ports.Repositories outside a transaction.
func (s *Store) Schedules() ports.ScheduleRepository { return scheduleRepo{s.committed()} }

// Parts implements ports.Repositories outside a transaction.
func (s *Store) Parts() ports.PartRepository { return partRepo{s.committed()} }

// StockMovements implements ports.Repositories outside a transaction.
func (s *Store) StockMovements() ports.StockMovementRepository {
	return movementRepo{s.committed()}
}

// PartRequests implements ports.Repositories outside a transaction.
func (s *Store) PartRequests() ports.PartRequestRepository { return requestRepo{s.committed()} }

// History implements ports.Repositories outside a transaction.
func (s *Store) History() ports.HistoryRepository { return historyRepo{s.committed()} }

// Assets implements ports.Repositories outside a transaction.
func (s *Store) Assets() ports.AssetRepository { return assetRepo{s.committed()} }

// Technicians implements ports.Repositories outside a transaction.
func (s *Store) Technicians() ports.TechnicianRepository { return technicianRepo{s.committed()} }

// view binds repositories either to a transaction's working copy or, when
// store is set, to whatever copy is committed at call time.
type view struct {
	mu    *sync.RWMutex
	t     *tables
	store *Store
}

func (v *view) read(fn func(t *tables) error) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return fn(v.tables())
}

func (v *view) write(fn func(t *tables) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fn(v.tables())
}

func (v *view) tables() *tables {
	if v.store != nil {
		return v.store.data
	}
	return v.t
}

func (v *view) WorkOrders() ports.WorkOrderRepository         { return workOrderRepo{v} }
func (v *view) WorkOrderParts() ports.WorkOrderPartRepository { return workOrderPartRepo{v} }
func (v *view) Schedules() ports.ScheduleRepository           { return scheduleRepo{v} }
func (v *view) Parts() ports.PartRepository                   { return partRepo{v} }
func (v *view) StockMovements() ports.StockMovementRepository { return movementRepo{v} }
func (v *view) PartRequests() ports.PartRequestRepository     { return requestRepo{v} }
func (v *view) History() ports.HistoryRepository              { return historyRepo{v} }
func (v *view) Assets() ports.AssetRepository                 { return assetRepo{v} }
func (v *view) Technicians() ports.TechnicianRepository       { return technicianRepo{v} }

// ---- work orders ----

type workOrderRepo struct{ v *view }

func (r workOrderRepo) FindByID(_ context.Context, id string) (*domain.WorkOrder, error) {
	var out *domain.WorkOrder
	err := r.v.read(func(t *tables) error {
		wo, ok := t.workOrders[id]
		if !ok {
			return domain.NotFound("work order", id)
		}
		out = &wo
		return nil
	})
	return out, err
}

func (r workOrderRepo) FindByAssetID(_ context.Context, assetID string) ([]*domain.WorkOrder, error) {
	var out []*domain.WorkOrder
	err := r.v.read(func(t *tables) error {
		for _, wo := range t.workOrders {
			if wo.AssetID == assetID {
				wo := wo
				out = append(out, &wo)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, err
}

func (r workOrderRepo) Save(_ context.Context, wo *domain.WorkOrder) error {
	return r.v.write(func(t *tables) error {
		if _, ok := t.workOrders[wo.ID]; ok {
			return domain.Conflict("work order", wo.ID)
		}
		wo.Version = 1
		t.workOrders[wo.ID] = *wo
		return nil
	})
}

func (r workOrderRepo) Update(_ context.Context, wo *domain.WorkOrder) error {
	return r.v.write(func(t *tables) error {
		cur, ok := t.workOrders[wo.ID]
		if !ok {
			return domain.NotFound("work order", wo.ID)
		}
		if cur.Version != wo.Version {
			return domain.Conflict("work order", wo.ID)
		}
		wo.Version++
		t.workOrders[wo.ID] = *wo
		return nil
	})
}

// ---- work order parts ----

type workOrderPartRepo struct{ v *view }

func (r workOrderPartRepo) FindByID(_ context.Context, id string) (*domain.WorkOrderPart, error) {
	var out *domain.WorkOrderPart
	err := r.v.read(func(t *tables) error {
		p, ok := t.workOrderParts[id]
		if !ok {
			return domain.NotFound("work order part", id)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r workOrderPartRepo) FindByWorkOrderID(_ context.Context, workOrderID string) ([]*domain.WorkOrderPart, error) {
	var out []*domain.WorkOrderPart
	err := r.v.read(func(t *tables) error {
		for _, p := range t.workOrderParts {
			if p.WorkOrderID == workOrderID {
				p := p
				out = append(out, &p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

func (r workOrderPartRepo) Save(_ context.Context, p *domain.WorkOrderPart) error {
	return r.v.write(func(t *tables) error {
		if _, ok := t.workOrderParts[p.ID]; ok {
			return domain.Conflict("work order part", p.ID)
		}
		p.Version = 1
		t.workOrderParts[p.ID] = *p
		return nil
	})
}

func (r workOrderPartRepo) Update(_ context.Context, p *domain.WorkOrderPart) error {
	return r.v.write(func(t *tables) error {
		cur, ok := t.workOrderParts[p.ID]
		if !ok {
			return domain.NotFound("work order part", p.ID)
		}
		if cur.Version != p.Version {
			return domain.Conflict("work order part", p.ID)
		}
		p.Version++
		t.workOrderParts[p.ID] = *p
		return nil
	})
}

func (r workOrderPartRepo) Delete(_ context.Context, id string) error {
	return r.v.write(func(t *tables) error {
		if _, ok := t.workOrderParts[id]; !ok {
			return domain.NotFound("work order part", id)
		}
		delete(t.workOrderParts, id)
		return nil
	})
}

// ---- schedules ----

type scheduleRepo struct{ v *view }

func (r scheduleRepo) FindByID(_ context.Context, id string) (domain.MaintenanceSchedule, error) {
	var out domain.MaintenanceSchedule
	err := r.v.read(func(t *tables) error {
		s, ok := t.schedules[id]
		if !ok {
			return domain.NotFound("schedule", id)
		}
		out = s
		return nil
	})
	return out, err
}

func (r scheduleRepo) FindByAssetID(_ context.Context, assetID string) ([]domain.MaintenanceSchedule, error) {
	return r.filter(func(s domain.MaintenanceSchedule) bool { return s.AssetID == assetID })
}

func (r scheduleRepo) FindDueSchedules(_ context.Context, now time.Time) ([]domain.MaintenanceSchedule, error) {
	return r.filter(func(s domain.MaintenanceSchedule) bool { return s.IsDue(now) })
}

func (r scheduleRepo) filter(keep func(domain.MaintenanceSchedule) bool) ([]domain.MaintenanceSchedule, error) {
	var out []domain.MaintenanceSchedule
	err := r.v.read(func(t *tables) error {
		for _, s := range t.schedules {
			if keep(s) {
				out = append(out, s)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r scheduleRepo) Save(_ context.Context, s domain.MaintenanceSchedule) error {
	return r.v.write(func(t *tables) error {
		if _, ok := t.schedules[s.ID]; ok {
			return domain.Conflict("schedule", s.ID)
		}
		s.Version = 1
		t.schedules[s.ID] = s
		return nil
	})
}

func (r scheduleRepo) Update(_ context.Context, s domain.MaintenanceSchedule) error {
	return r.v.write(func(t *tables) error {
		cur, ok := t.schedules[s.ID]
		if !ok {
			return domain.NotFound("schedule", s.ID)
		}
		if cur.Version != s.Version {
			return domain.Conflict("schedule", s.ID)
		}
		s.Version++
		t.schedules[s.ID] = s
		return nil
	})
}

// ---- parts ----

type partRepo struct{ v *view }

func (r partRepo) FindByID(_ context.Context, id string) (*domain.Part, error) {
	var out *domain.Part
	err := r.v.read(func(t *tables) error {
		p, ok := t.parts[id]
		if !ok {
			return domain.NotFound("part", id)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r partRepo) Update(_ context.Context, p *domain.Part) error {
	return r.v.write(func(t *tables) error {
		cur, ok := t.parts[p.ID]
		if !ok {
			return domain.NotFound("part", p.ID)
		}
		if cur.Version != p.Version {
			return domain.Conflict("part", p.ID)
		}
		p.Version++
		t.parts[p.ID] = *p
		return nil
	})
}

// ---- stock movements ----

type movementRepo struct{ v *view }

func (r movementRepo) Save(_ context.Context, m *domain.StockMovement) error {
	return r.v.write(func(t *tables) error {
		t.movements = append(t.movements, *m)
		return nil
	})
}

func (r movementRepo) FindByPartID(_ context.Context, partID string) ([]*domain.StockMovement, error) {
	var out []*domain.StockMovement
	err := r.v.read(func(t *tables) error {
		for _, m := range t.movements {
			if m.PartID == partID {
				m := m
				out = append(out, &m)
			}
		}
		return nil
	})
	return out, err
}

// ---- part requests ----

type requestRepo struct{ v *view }

func (r requestRepo) Save(_ context.Context, req *domain.PartRequest) error {
	return r.v.write(func(t *tables) error {
		if _, ok := t.requests[req.ID]; ok {
			return domain.Conflict("part request", req.ID)
		}
		t.requests[req.ID] = *req
		return nil
	})
}

func (r requestRepo) Update(_ context.Context, req *domain.PartRequest) error {
	return r.v.write(func(t *tables) error {
		if _, ok := t.requests[req.ID]; !ok {
			return domain.NotFound("part request", req.ID)
		}
		t.requests[req.ID] = *req
		return nil
	})
}

func (r requestRepo) FindByWorkOrderID(_ context.Context, workOrderID string) ([]*domain.PartRequest, error) {
	var out []*domain.PartRequest
	err := r.v.read(func(t *tables) error {
		for _, req := range t.requests {
			if req.WorkOrderID == workOrderID {
				req := req
				out = append(out, &req)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// ---- history ----

type historyRepo struct{ v *view }

func (r historyRepo) Save(_ context.Context, e *domain.WorkOrderEvent) error {
	return r.v.write(func(t *tables) error {
		t.events = append(t.events, *e)
		return nil
	})
}

func (r historyRepo) FindByWorkOrderID(_ context.Context, workOrderID string) ([]*domain.WorkOrderEvent, error) {
	var out []*domain.WorkOrderEvent
	err := r.v.read(func(t *tables) error {
		for _, e := range t.events {
			if e.WorkOrderID == workOrderID {
				e := e
				out = append(out, &e)
			}
		}
		return nil
	})
	return out, err
}

// ---- identities ----

type assetRepo struct{ v *view }

func (r assetRepo) Exists(_ context.Context, id string) (bool, error) {
	var ok bool
	err := r.v.read(func(t *tables) error {
		_, ok = t.assets[id]
		return nil
	})
	return ok, err
}

type technicianRepo struct{ v *view }

func (r technicianRepo) Exists(_ context.Context, id string) (bool, error) {
	var ok bool
	err := r.v.read(func(t *tables) error {
		_, ok = t.technicians[id]
		return nil
	})
	return ok, err
}

func newerFirst(a, b time.Time, idA, idB string) bool {
	if a.Equal(b) {
		return idA < idB
	}
	return a.After(b)
}
