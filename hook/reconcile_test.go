package hook

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"

	"github.com/clusterops/placehook/common/stats"
	"github.com/clusterops/placehook/pbs"
)

func newTestReconciler(t *testing.T, capPerCycle int) (*Reconciler, *pbs.MockClient, stats.StatsRegistry, func()) {
	mockCtrl := gomock.NewController(t)
	clientMock := pbs.NewMockClient(mockCtrl)
	statsRegistry := stats.NewFinagleStatsRegistry()
	statsReceiver, _ := stats.NewCustomStatsReceiver(func() stats.StatsRegistry { return statsRegistry }, 0)
	return NewReconciler(clientMock, capPerCycle, statsReceiver), clientMock, statsRegistry, mockCtrl.Finish
}

func TestRunCycleNothingHeld(t *testing.T) {
	reconciler, clientMock, _, finish := newTestReconciler(t, 25)
	defer finish()

	// No StatJobs expectation: an empty listing must not stat.
	clientMock.EXPECT().ListHeld(gomock.Any()).Return(nil, nil)

	result, err := reconciler.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CycleID == "" {
		t.Errorf("expected a cycle id")
	}
	if result.Listed != 0 || result.Examined != 0 || result.Released != 0 {
		t.Errorf("expected an empty cycle, got %+v", result)
	}
}

func TestRunCycleAltersAndReleases(t *testing.T) {
	reconciler, clientMock, statsRegistry, finish := newTestReconciler(t, 25)
	defer finish()

	clientMock.EXPECT().ListHeld(gomock.Any()).Return([]string{"1.master", "2.master"}, nil)
	clientMock.EXPECT().StatJobs(gomock.Any(), []string{"1.master", "2.master"}).Return(
		map[string]pbs.JobDetail{
			"1.master": {ID: "1.master", Select: "2:ncpus=4"},
			"2.master": {ID: "2.master", Place: "scatter"},
		}, nil)
	clientMock.EXPECT().Alter(gomock.Any(), "1.master", "group=group_id", "2:ncpus=4:ungrouped=false").Return(nil)
	clientMock.EXPECT().Release(gomock.Any(), "1.master").Return(nil)

	result, err := reconciler.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := CycleResult{CycleID: result.CycleID, Listed: 2, Examined: 2, Altered: 1, Released: 1, StillHeld: 1}
	if result != want {
		t.Errorf("expected %+v, got %+v", want, result)
	}

	if !stats.StatsOk("cycle", statsRegistry, t,
		map[string]stats.Rule{
			stats.ReconcileCyclesCounter:    {Checker: stats.Int64EqTest, Value: 1},
			stats.ReconcileExaminedCounter:  {Checker: stats.Int64EqTest, Value: 2},
			stats.ReconcileAlteredCounter:   {Checker: stats.Int64EqTest, Value: 1},
			stats.ReconcileReleasedCounter:  {Checker: stats.Int64EqTest, Value: 1},
			stats.ReconcileStillHeldCounter: {Checker: stats.Int64EqTest, Value: 1},
			stats.ReconcileFailedCounter:    {Checker: stats.DoesNotExistTest, Value: nil},
		}) {
		t.Fatal("stats check did not pass.")
	}
}

func TestRunCycleAlterCarriesBothTexts(t *testing.T) {
	reconciler, clientMock, _, finish := newTestReconciler(t, 25)
	defer finish()

	// Only the select moves, but the alter still writes both attributes.
	clientMock.EXPECT().ListHeld(gomock.Any()).Return([]string{"1.master"}, nil)
	clientMock.EXPECT().StatJobs(gomock.Any(), []string{"1.master"}).Return(
		map[string]pbs.JobDetail{
			"1.master": {ID: "1.master", Place: "group=group_id", Select: "1:slot_type=gpuA"},
		}, nil)
	clientMock.EXPECT().Alter(gomock.Any(), "1.master", "group=group_id", "1:slot_type=gpuA:ungrouped=false").Return(nil)
	clientMock.EXPECT().Release(gomock.Any(), "1.master").Return(nil)

	if _, err := reconciler.RunCycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunCycleSkipReleasesWithoutAlter(t *testing.T) {
	reconciler, clientMock, _, finish := newTestReconciler(t, 25)
	defer finish()

	clientMock.EXPECT().ListHeld(gomock.Any()).Return([]string{"1.master"}, nil)
	clientMock.EXPECT().StatJobs(gomock.Any(), []string{"1.master"}).Return(
		map[string]pbs.JobDetail{
			"1.master": {ID: "1.master", Place: "group=rack1", Select: "1:ncpus=2"},
		}, nil)
	clientMock.EXPECT().Release(gomock.Any(), "1.master").Return(nil)

	result, err := reconciler.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Altered != 0 || result.Released != 1 {
		t.Errorf("expected release without alteration, got %+v", result)
	}
}

func TestRunCycleAlreadyNormalizedReleasesWithoutAlter(t *testing.T) {
	reconciler, clientMock, _, finish := newTestReconciler(t, 25)
	defer finish()

	clientMock.EXPECT().ListHeld(gomock.Any()).Return([]string{"1.master"}, nil)
	clientMock.EXPECT().StatJobs(gomock.Any(), []string{"1.master"}).Return(
		map[string]pbs.JobDetail{
			"1.master": {ID: "1.master", Place: "group=group_id", Select: "1:ncpus=2:ungrouped=false"},
		}, nil)
	clientMock.EXPECT().Release(gomock.Any(), "1.master").Return(nil)

	result, err := reconciler.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Altered != 0 || result.Released != 1 {
		t.Errorf("expected release without alteration, got %+v", result)
	}
}

func TestRunCycleAlterFailureLeavesJobHeld(t *testing.T) {
	reconciler, clientMock, statsRegistry, finish := newTestReconciler(t, 25)
	defer finish()

	// 1.master's alter fails and it must not be released; 2.master is
	// still processed afterwards.
	clientMock.EXPECT().ListHeld(gomock.Any()).Return([]string{"1.master", "2.master"}, nil)
	clientMock.EXPECT().StatJobs(gomock.Any(), []string{"1.master", "2.master"}).Return(
		map[string]pbs.JobDetail{
			"1.master": {ID: "1.master", Select: "2:ncpus=4"},
			"2.master": {ID: "2.master", Select: "1:ncpus=1"},
		}, nil)
	clientMock.EXPECT().Alter(gomock.Any(), "1.master", gomock.Any(), gomock.Any()).
		Return(errors.New("qalter exploded"))
	clientMock.EXPECT().Alter(gomock.Any(), "2.master", gomock.Any(), gomock.Any()).Return(nil)
	clientMock.EXPECT().Release(gomock.Any(), "2.master").Return(nil)

	result, err := reconciler.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("per job failures must not abort the cycle: %v", err)
	}
	if result.Failed != 1 || result.Released != 1 || result.Altered != 1 {
		t.Errorf("expected one failure and one release, got %+v", result)
	}

	if !stats.StatsOk("alterFailure", statsRegistry, t,
		map[string]stats.Rule{
			stats.ReconcileFailedCounter: {Checker: stats.Int64EqTest, Value: 1},
		}) {
		t.Fatal("stats check did not pass.")
	}
}

func TestRunCycleReleaseFailureIsCounted(t *testing.T) {
	reconciler, clientMock, _, finish := newTestReconciler(t, 25)
	defer finish()

	clientMock.EXPECT().ListHeld(gomock.Any()).Return([]string{"1.master"}, nil)
	clientMock.EXPECT().StatJobs(gomock.Any(), []string{"1.master"}).Return(
		map[string]pbs.JobDetail{
			"1.master": {ID: "1.master", Select: "2:ncpus=4"},
		}, nil)
	clientMock.EXPECT().Alter(gomock.Any(), "1.master", gomock.Any(), gomock.Any()).Return(nil)
	clientMock.EXPECT().Release(gomock.Any(), "1.master").Return(errors.New("qrls exploded"))

	result, err := reconciler.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("per job failures must not abort the cycle: %v", err)
	}
	if result.Altered != 1 || result.Released != 0 || result.Failed != 1 {
		t.Errorf("expected altered but unreleased job, got %+v", result)
	}
}

func TestRunCycleMalformedSelectLeavesJobHeld(t *testing.T) {
	reconciler, clientMock, _, finish := newTestReconciler(t, 25)
	defer finish()

	clientMock.EXPECT().ListHeld(gomock.Any()).Return([]string{"1.master"}, nil)
	clientMock.EXPECT().StatJobs(gomock.Any(), []string{"1.master"}).Return(
		map[string]pbs.JobDetail{
			"1.master": {ID: "1.master", Select: "ncpus=4"},
		}, nil)

	result, err := reconciler.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Failed != 1 || result.Released != 0 || result.Altered != 0 {
		t.Errorf("expected the busted job left held, got %+v", result)
	}
}

func TestRunCycleCapsListing(t *testing.T) {
	reconciler, clientMock, _, finish := newTestReconciler(t, 2)
	defer finish()

	clientMock.EXPECT().ListHeld(gomock.Any()).Return([]string{"1.master", "2.master", "3.master"}, nil)
	clientMock.EXPECT().StatJobs(gomock.Any(), []string{"1.master", "2.master"}).Return(
		map[string]pbs.JobDetail{
			"1.master": {ID: "1.master", Select: "1:ncpus=1"},
			"2.master": {ID: "2.master", Select: "1:ncpus=1"},
		}, nil)
	clientMock.EXPECT().Alter(gomock.Any(), "1.master", gomock.Any(), gomock.Any()).Return(nil)
	clientMock.EXPECT().Alter(gomock.Any(), "2.master", gomock.Any(), gomock.Any()).Return(nil)
	clientMock.EXPECT().Release(gomock.Any(), "1.master").Return(nil)
	clientMock.EXPECT().Release(gomock.Any(), "2.master").Return(nil)

	result, err := reconciler.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Listed != 3 || result.Examined != 2 {
		t.Errorf("expected 3 listed and 2 examined under the cap, got %+v", result)
	}
}

func TestRunCycleVanishedJob(t *testing.T) {
	reconciler, clientMock, _, finish := newTestReconciler(t, 25)
	defer finish()

	clientMock.EXPECT().ListHeld(gomock.Any()).Return([]string{"1.master", "2.master"}, nil)
	clientMock.EXPECT().StatJobs(gomock.Any(), []string{"1.master", "2.master"}).Return(
		map[string]pbs.JobDetail{
			"2.master": {ID: "2.master", Select: "1:ncpus=1"},
		}, nil)
	clientMock.EXPECT().Alter(gomock.Any(), "2.master", gomock.Any(), gomock.Any()).Return(nil)
	clientMock.EXPECT().Release(gomock.Any(), "2.master").Return(nil)

	result, err := reconciler.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Listed != 2 || result.Examined != 1 || result.Released != 1 {
		t.Errorf("expected the vanished job skipped, got %+v", result)
	}
}

func TestRunCycleListFailure(t *testing.T) {
	reconciler, clientMock, _, finish := newTestReconciler(t, 25)
	defer finish()

	clientMock.EXPECT().ListHeld(gomock.Any()).Return(nil, errors.New("qselect exploded"))

	if _, err := reconciler.RunCycle(context.Background()); err == nil {
		t.Fatalf("expected a listing failure to abort the cycle")
	}
}

func TestRunCycleStatFailure(t *testing.T) {
	reconciler, clientMock, _, finish := newTestReconciler(t, 25)
	defer finish()

	clientMock.EXPECT().ListHeld(gomock.Any()).Return([]string{"1.master"}, nil)
	clientMock.EXPECT().StatJobs(gomock.Any(), []string{"1.master"}).Return(nil, errors.New("qstat exploded"))

	if _, err := reconciler.RunCycle(context.Background()); err == nil {
		t.Fatalf("expected a stat failure to abort the cycle")
	}
}

func TestRunCycleCanceledContext(t *testing.T) {
	reconciler, clientMock, _, finish := newTestReconciler(t, 25)
	defer finish()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	clientMock.EXPECT().ListHeld(gomock.Any()).Return([]string{"1.master"}, nil)
	clientMock.EXPECT().StatJobs(gomock.Any(), []string{"1.master"}).Return(
		map[string]pbs.JobDetail{
			"1.master": {ID: "1.master", Select: "1:ncpus=1"},
		}, nil)

	result, err := reconciler.RunCycle(ctx)
	if err == nil {
		t.Fatalf("expected the dead context to abort the walk")
	}
	if result.Examined != 0 {
		t.Errorf("expected no jobs examined after cancellation, got %+v", result)
	}
}
