package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/steelbound/forgetrace-backend/internal/data/repos/testutil"
	types "github.com/steelbound/forgetrace-backend/internal/domain"
	"github.com/steelbound/forgetrace-backend/internal/domain/faults"
	wf "github.com/steelbound/forgetrace-backend/internal/domain/workflow"
	"github.com/steelbound/forgetrace-backend/internal/events"
	"github.com/steelbound/forgetrace-backend/internal/platform/dbctx"
)

func TestStartWorkflowUsesDefaultTemplate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := testutil.SeedTenant(t, e.db)
	item := testutil.SeedItem(t, e.db, tenant.ID)
	template := testutil.SeedTemplate(t, e.db, tenant.ID, true, testutil.StandardSteps())

	workflow, err := e.workflows.Start(ctx, nil, tenant.ID, item.ID, uuid.Nil, wf.ItemScope())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if workflow.TemplateID != template.ID {
		t.Fatalf("expected default template %s, got %s", template.ID, workflow.TemplateID)
	}
	if workflow.Status != types.StatusNotStarted {
		t.Fatalf("fresh workflow must be NOT_STARTED, got %s", workflow.Status)
	}
}

func TestStartWorkflowWithoutDefaultTemplate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := testutil.SeedTenant(t, e.db)
	item := testutil.SeedItem(t, e.db, tenant.ID)

	_, err := e.workflows.Start(ctx, nil, tenant.ID, item.ID, uuid.Nil, wf.ItemScope())
	if !faults.IsReason(err, faults.ReasonNoDefaultTemplate) {
		t.Fatalf("expected no_default_template, got %v", err)
	}
}

func TestStartWorkflowDuplicateIdentity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := testutil.SeedTenant(t, e.db)
	item := testutil.SeedItem(t, e.db, tenant.ID)
	testutil.SeedTemplate(t, e.db, tenant.ID, true, testutil.StandardSteps())

	if _, err := e.workflows.Start(ctx, nil, tenant.ID, item.ID, uuid.Nil, wf.ItemScope()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	_, err := e.workflows.Start(ctx, nil, tenant.ID, item.ID, uuid.Nil, wf.ItemScope())
	if !faults.IsReason(err, faults.ReasonDuplicateWorkflow) {
		t.Fatalf("expected duplicate_workflow, got %v", err)
	}

	// A batch-level workflow under its own identifier coexists with the
	// item-level one.
	if _, err := e.workflows.Start(ctx, nil, tenant.ID, item.ID, uuid.Nil, wf.BatchScope("LOT-7")); err != nil {
		t.Fatalf("batch-scope Start: %v", err)
	}
	_, err = e.workflows.Start(ctx, nil, tenant.ID, item.ID, uuid.Nil, wf.BatchScope("LOT-7"))
	if !faults.IsReason(err, faults.ReasonDuplicateWorkflow) {
		t.Fatalf("expected duplicate_workflow for same identifier, got %v", err)
	}
}

func TestConcurrentStartsYieldSingleWorkflow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := testutil.SeedTenant(t, e.db)
	item := testutil.SeedItem(t, e.db, tenant.ID)
	testutil.SeedTemplate(t, e.db, tenant.ID, true, testutil.StandardSteps())

	// Two racing Starts: whichever inserts second is stopped either by the
	// duplicate-check read or, when both reads ran before either insert, by
	// the partial unique index over live rows.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.workflows.Start(ctx, nil, tenant.ID, item.ID, uuid.Nil, wf.ItemScope())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var started, duplicates int
	for err := range errs {
		switch {
		case err == nil:
			started++
		case faults.IsReason(err, faults.ReasonDuplicateWorkflow):
			duplicates++
		default:
			t.Fatalf("unexpected Start error: %v", err)
		}
	}
	if started != 1 || duplicates != 1 {
		t.Fatalf("expected one winner and one duplicate, got %d started / %d duplicates", started, duplicates)
	}

	workflows, err := e.workflowRepo.GetByItemID(dbctx.Context{Ctx: ctx}, tenant.ID, item.ID)
	if err != nil {
		t.Fatalf("GetByItemID: %v", err)
	}
	if len(workflows) != 1 {
		t.Fatalf("expected a single workflow row, got %d", len(workflows))
	}
}

func TestRecordStepAdvancesAndCompletes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := testutil.SeedTenant(t, e.db)
	item := testutil.SeedItem(t, e.db, tenant.ID)
	template := testutil.SeedTemplate(t, e.db, tenant.ID, true, []testutil.TemplateStep{
		{Op: types.OpForging},
		{Op: types.OpHeatTreatment},
	})
	workflow := testutil.SeedWorkflow(t, e.db, tenant.ID, item.ID, template.ID, wf.ItemScope())

	step, err := e.workflows.RecordStep(ctx, nil, tenant.ID, RecordStepInput{
		WorkflowID:    workflow.ID,
		OperationType: types.OpForging,
		BatchEntityID: uuid.New(),
		Outcome:       types.OutcomePass,
	})
	if err != nil {
		t.Fatalf("RecordStep FORGING: %v", err)
	}
	if step.Sequence != 1 {
		t.Fatalf("expected sequence 1, got %d", step.Sequence)
	}

	state, err := e.workflows.CurrentStepAndNextOperations(ctx, tenant.ID, workflow.ID)
	if err != nil {
		t.Fatalf("CurrentStepAndNextOperations: %v", err)
	}
	if state.Workflow.Status != types.StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", state.Workflow.Status)
	}
	if len(state.NextOperations) != 1 || state.NextOperations[0] != types.OpHeatTreatment {
		t.Fatalf("expected [HEAT_TREATMENT] next, got %v", state.NextOperations)
	}

	if _, err := e.workflows.RecordStep(ctx, nil, tenant.ID, RecordStepInput{
		WorkflowID:    workflow.ID,
		OperationType: types.OpHeatTreatment,
		BatchEntityID: uuid.New(),
		Outcome:       types.OutcomePass,
	}); err != nil {
		t.Fatalf("RecordStep HEAT_TREATMENT: %v", err)
	}

	state, err = e.workflows.CurrentStepAndNextOperations(ctx, tenant.ID, workflow.ID)
	if err != nil {
		t.Fatalf("CurrentStepAndNextOperations: %v", err)
	}
	if state.Workflow.Status != types.StatusCompleted || !state.Complete {
		t.Fatalf("expected COMPLETED, got %s complete=%v", state.Workflow.Status, state.Complete)
	}
	if len(state.NextOperations) != 0 {
		t.Fatalf("terminal workflow must offer nothing, got %v", state.NextOperations)
	}
}

func TestRecordStepRejectsOutOfOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := testutil.SeedTenant(t, e.db)
	item := testutil.SeedItem(t, e.db, tenant.ID)
	template := testutil.SeedTemplate(t, e.db, tenant.ID, true, testutil.StandardSteps())
	workflow := testutil.SeedWorkflow(t, e.db, tenant.ID, item.ID, template.ID, wf.ItemScope())

	if _, err := e.workflows.RecordStep(ctx, nil, tenant.ID, RecordStepInput{
		WorkflowID:    workflow.ID,
		OperationType: types.OpForging,
		BatchEntityID: uuid.New(),
		Outcome:       types.OutcomePass,
	}); err != nil {
		t.Fatalf("RecordStep FORGING: %v", err)
	}

	// MACHINING before HEAT_TREATMENT violates the template order.
	_, err := e.workflows.RecordStep(ctx, nil, tenant.ID, RecordStepInput{
		WorkflowID:    workflow.ID,
		OperationType: types.OpMachining,
		BatchEntityID: uuid.New(),
		Outcome:       types.OutcomePass,
	})
	if !faults.IsReason(err, faults.ReasonInvalidStepTransition) {
		t.Fatalf("expected invalid_step_transition, got %v", err)
	}

	// The rejected attempt must leave no step behind.
	history, err := e.stepRepo.GetByWorkflowID(dbctx.Context{Ctx: ctx}, tenant.ID, workflow.ID)
	if err != nil {
		t.Fatalf("GetByWorkflowID: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 recorded step, got %d", len(history))
	}
}

func TestRecordStepFailedAttemptReoffers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := testutil.SeedTenant(t, e.db)
	item := testutil.SeedItem(t, e.db, tenant.ID)
	template := testutil.SeedTemplate(t, e.db, tenant.ID, true, []testutil.TemplateStep{
		{Op: types.OpForging},
	})
	workflow := testutil.SeedWorkflow(t, e.db, tenant.ID, item.ID, template.ID, wf.ItemScope())

	if _, err := e.workflows.RecordStep(ctx, nil, tenant.ID, RecordStepInput{
		WorkflowID:    workflow.ID,
		OperationType: types.OpForging,
		BatchEntityID: uuid.New(),
		Outcome:       types.OutcomeFail,
	}); err != nil {
		t.Fatalf("RecordStep FAIL: %v", err)
	}

	state, err := e.workflows.CurrentStepAndNextOperations(ctx, tenant.ID, workflow.ID)
	if err != nil {
		t.Fatalf("CurrentStepAndNextOperations: %v", err)
	}
	if state.Workflow.Status != types.StatusInProgress {
		t.Fatalf("FAIL still moves the workflow to IN_PROGRESS, got %s", state.Workflow.Status)
	}
	if state.Complete {
		t.Fatal("FAIL must not complete the workflow")
	}
	if len(state.NextOperations) != 1 || state.NextOperations[0] != types.OpForging {
		t.Fatalf("failed operation must stay on offer, got %v", state.NextOperations)
	}
}

func TestCancelWorkflow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := testutil.SeedTenant(t, e.db)
	item := testutil.SeedItem(t, e.db, tenant.ID)
	template := testutil.SeedTemplate(t, e.db, tenant.ID, true, testutil.StandardSteps())
	workflow := testutil.SeedWorkflow(t, e.db, tenant.ID, item.ID, template.ID, wf.ItemScope())

	if err := e.workflows.Cancel(ctx, tenant.ID, workflow.ID, "die cracked"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	got, err := e.workflowRepo.GetByID(dbctx.Context{Ctx: ctx}, tenant.ID, workflow.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.StatusCancelled || got.CancelReason != "die cracked" {
		t.Fatalf("expected CANCELLED with reason, got %s %q", got.Status, got.CancelReason)
	}

	// Cancelling again is a no-op.
	if err := e.workflows.Cancel(ctx, tenant.ID, workflow.ID, "again"); err != nil {
		t.Fatalf("second Cancel must be idempotent: %v", err)
	}

	// Terminal workflows refuse new steps.
	_, err = e.workflows.RecordStep(ctx, nil, tenant.ID, RecordStepInput{
		WorkflowID:    workflow.ID,
		OperationType: types.OpForging,
		BatchEntityID: uuid.New(),
		Outcome:       types.OutcomePass,
	})
	if !faults.IsReason(err, faults.ReasonWorkflowTerminal) {
		t.Fatalf("expected workflow_terminal, got %v", err)
	}

	// A cancelled workflow frees the identity slot for a fresh start.
	if _, err := e.workflows.Start(ctx, nil, tenant.ID, item.ID, uuid.Nil, wf.ItemScope()); err != nil {
		t.Fatalf("restart after cancel: %v", err)
	}
}

func TestCancelCompletedWorkflowConflicts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tenant := testutil.SeedTenant(t, e.db)
	item := testutil.SeedItem(t, e.db, tenant.ID)
	template := testutil.SeedTemplate(t, e.db, tenant.ID, true, []testutil.TemplateStep{
		{Op: types.OpForging},
	})
	workflow := testutil.SeedWorkflow(t, e.db, tenant.ID, item.ID, template.ID, wf.ItemScope())

	if _, err := e.workflows.RecordStep(ctx, nil, tenant.ID, RecordStepInput{
		WorkflowID:    workflow.ID,
		OperationType: types.OpForging,
		BatchEntityID: uuid.New(),
		Outcome:       types.OutcomePass,
	}); err != nil {
		t.Fatalf("RecordStep: %v", err)
	}

	err := e.workflows.Cancel(ctx, tenant.ID, workflow.ID, "too late")
	if !faults.IsReason(err, faults.ReasonWorkflowTerminal) {
		t.Fatalf("expected workflow_terminal conflict, got %v", err)
	}
}

type capturePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *capturePublisher) Publish(_ context.Context, event string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func TestEventsPublishOnlyOutsideCallerTransactions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	pub := &capturePublisher{}
	svc := NewItemWorkflowService(e.db, testutil.Logger(t), e.templates, e.workflowRepo, e.stepRepo, e.itemRepo, pub)

	tenant := testutil.SeedTenant(t, e.db)
	item := testutil.SeedItem(t, e.db, tenant.ID)
	template := testutil.SeedTemplate(t, e.db, tenant.ID, true, []testutil.TemplateStep{
		{Op: types.OpForging},
		{Op: types.OpHeatTreatment},
	})
	workflow := testutil.SeedWorkflow(t, e.db, tenant.ID, item.ID, template.ID, wf.ItemScope())

	// Inside a caller-supplied transaction nothing may be published: the
	// caller can still roll the step back.
	tx := e.db.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	if _, err := svc.RecordStep(ctx, tx, tenant.ID, RecordStepInput{
		WorkflowID:    workflow.ID,
		OperationType: types.OpForging,
		BatchEntityID: uuid.New(),
		Outcome:       types.OutcomePass,
	}); err != nil {
		_ = tx.Rollback().Error
		t.Fatalf("RecordStep in tx: %v", err)
	}
	if err := tx.Rollback().Error; err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if got := pub.snapshot(); len(got) != 0 {
		t.Fatalf("rolled-back step must leave no events, got %v", got)
	}
	history, err := e.stepRepo.GetByWorkflowID(dbctx.Context{Ctx: ctx}, tenant.ID, workflow.ID)
	if err != nil {
		t.Fatalf("GetByWorkflowID: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("rolled-back step must not persist, got %d steps", len(history))
	}

	// Owning its own transaction, the service publishes after commit.
	if _, err := svc.RecordStep(ctx, nil, tenant.ID, RecordStepInput{
		WorkflowID:    workflow.ID,
		OperationType: types.OpForging,
		BatchEntityID: uuid.New(),
		Outcome:       types.OutcomePass,
	}); err != nil {
		t.Fatalf("RecordStep: %v", err)
	}
	got := pub.snapshot()
	if len(got) != 1 || got[0] != events.WorkflowStepRecorded {
		t.Fatalf("expected a single %s event, got %v", events.WorkflowStepRecorded, got)
	}

	// The same holds for Start.
	other := testutil.SeedItem(t, e.db, tenant.ID)
	tx = e.db.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	if _, err := svc.Start(ctx, tx, tenant.ID, other.ID, uuid.Nil, wf.ItemScope()); err != nil {
		_ = tx.Rollback().Error
		t.Fatalf("Start in tx: %v", err)
	}
	if err := tx.Rollback().Error; err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if got := pub.snapshot(); len(got) != 1 {
		t.Fatalf("rolled-back Start must leave no events, got %v", got)
	}

	if _, err := svc.Start(ctx, nil, tenant.ID, other.ID, uuid.Nil, wf.ItemScope()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	got = pub.snapshot()
	if len(got) != 2 || got[1] != events.WorkflowStarted {
		t.Fatalf("expected %s after commit, got %v", events.WorkflowStarted, got)
	}
}
