package launch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"

	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/imamik/sparkfleet/internal/cluster"
	"github.com/imamik/sparkfleet/internal/config"
	"github.com/imamik/sparkfleet/internal/metrics"
	"github.com/imamik/sparkfleet/internal/provisioning"
	"github.com/imamik/sparkfleet/internal/provisioning/compute"
	"github.com/imamik/sparkfleet/internal/provisioning/infrastructure"
	"github.com/imamik/sparkfleet/internal/util/naming"
	"github.com/imamik/sparkfleet/pkg/cloud/fakes"
)

type recordingServices struct {
	calls    int
	clusters []*cluster.Cluster
	err      error
}

func (s *recordingServices) Provision(_ context.Context, c *cluster.Cluster) error {
	s.calls++
	s.clusters = append(s.clusters, c)
	return s.err
}

var _ = Describe("Launcher", func() {
	var (
		fake     *fakes.EC2
		services *recordingServices
		checkIP  *httptest.Server
		resolver *infrastructure.AddressResolver
	)

	BeforeEach(func() {
		fake = fakes.NewEC2()
		fake.AddEBSImage("ami-12345678", 8, false)
		services = &recordingServices{}

		checkIP = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = fmt.Fprintln(w, "203.0.113.7")
		}))
		DeferCleanup(checkIP.Close)

		resolver = &infrastructure.AddressResolver{
			HTTPClient: checkIP.Client(),
			URL:        checkIP.URL,
			Hostname:   func() (string, error) { return "workstation", nil },
			LookupIP: func(context.Context, string, string) ([]net.IP, error) {
				return []net.IP{net.ParseIP("192.168.1.10")}, nil
			},
		}
	})

	newContext := func(parent context.Context, name string, workers int) *provisioning.Context {
		cfg := &config.Config{ClusterName: name}
		cfg.ApplyDefaults()
		cfg.Provider.EC2.AMI = "ami-12345678"
		cfg.Provider.EC2.KeyName = "ops"
		cfg.Launch.NumWorkers = workers

		ctx := provisioning.NewContext(parent, cfg, fake, logr.Discard())
		ctx.Timeouts = config.TestTimeouts()
		return ctx
	}

	launch := func(ctx *provisioning.Context) (*cluster.Cluster, error) {
		return NewLauncher(services, WithAddressResolver(resolver)).Launch(ctx)
	}

	discover := func(name string) (*cluster.Cluster, error) {
		return cluster.NewDiscoverer(fake, "us-east-1", logr.Discard()).GetCluster(context.Background(), name, "")
	}

	Context("on-demand", func() {
		It("launches a running cluster with one master and two workers", func() {
			ctx := newContext(context.Background(), "test", 2)

			c, err := launch(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.State()).To(Equal(cluster.StateRunning))
			Expect(c.Workers).To(HaveLen(2))
			Expect(fake.CallCount("RunInstances")).To(Equal(1))

			By("handing the running cluster to the service provisioner once")
			Expect(services.calls).To(Equal(1))
			Expect(services.clusters[0].Master.ID).To(Equal(c.Master.ID))

			By("discovering it by name")
			found, err := discover("test")
			Expect(err).NotTo(HaveOccurred())
			Expect(found.Instances()).To(HaveLen(3))
			Expect(found.Master.Role).To(Equal("master"))
			Expect(found.State()).To(Equal(cluster.StateRunning))

			Expect(ctx.Rollback.Len()).To(BeZero())
		})

		DescribeTable("discovery yields one master plus every worker",
			func(workers int) {
				ctx := newContext(context.Background(), "sized", workers)
				_, err := launch(ctx)
				Expect(err).NotTo(HaveOccurred())

				found, err := discover("sized")
				Expect(err).NotTo(HaveOccurred())
				Expect(found.Master.ID).NotTo(BeEmpty())
				Expect(found.Workers).To(HaveLen(workers))
			},
			Entry("one worker", 1),
			Entry("three workers", 3),
			Entry("five workers", 5),
		)

		It("refuses to launch over an existing cluster", func() {
			_, err := launch(newContext(context.Background(), "test", 1))
			Expect(err).NotTo(HaveOccurred())
			live := fake.LiveInstanceIDs()

			_, err = launch(newContext(context.Background(), "test", 1))
			Expect(err).To(MatchError(cluster.ErrAlreadyExists))
			Expect(fake.CallCount("RunInstances")).To(Equal(1))
			Expect(fake.LiveInstanceIDs()).To(Equal(live))
			Expect(fake.GroupByName(naming.ClusterGroup("test"))).NotTo(BeNil())
		})

		It("rejects a VPC without DNS hostnames before creating anything", func() {
			fake.AddVPC("vpc-private", false, false)
			ctx := newContext(context.Background(), "test", 1)
			ctx.Config.Provider.EC2.VPCID = "vpc-private"

			_, err := launch(ctx)
			Expect(err).To(MatchError(cluster.ErrConfigurationNotSupported))
			Expect(fake.MutatingCalls()).To(BeZero())
		})
	})

	Context("rollback", func() {
		It("deletes the cluster group when the image is missing", func() {
			ctx := newContext(context.Background(), "test", 1)
			ctx.Config.Provider.EC2.AMI = "ami-00000000"

			_, err := launch(ctx)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("could not find image ami-00000000"))
			Expect(fake.GroupByName(naming.ClusterGroup("test"))).To(BeNil())
			Expect(fake.GroupByName(naming.BaseGroup())).NotTo(BeNil())
			Expect(fake.CallCount("RunInstances")).To(BeZero())
		})

		It("terminates every instance when services fail", func() {
			services.err = errors.New("install failed")
			ctx := newContext(context.Background(), "test", 2)

			_, err := launch(ctx)
			Expect(err).To(MatchError(services.err))
			Expect(fake.LiveInstanceIDs()).To(BeEmpty())
			Expect(fake.GroupByName(naming.ClusterGroup("test"))).To(BeNil())

			n, gatherErr := testutil.GatherAndCount(metrics.Registry, "sparkfleet_launch_rollbacks_total")
			Expect(gatherErr).NotTo(HaveOccurred())
			Expect(n).To(BeNumerically(">=", 1))
		})

		It("leaves nothing behind when one spot request fails", func() {
			fake.SpotFailures[1] = "price-too-low"
			ctx := newContext(context.Background(), "test", 2)
			ctx.Config.Provider.EC2.SpotPrice = 0.01

			_, err := launch(ctx)
			var failed *compute.SpotRequestFailedError
			Expect(errors.As(err, &failed)).To(BeTrue())
			Expect(failed.Reasons).To(Equal([]string{"price-too-low"}))

			Expect(fake.LiveInstanceIDs()).To(BeEmpty())
			Expect(fake.GroupByName(naming.ClusterGroup("test"))).To(BeNil())
			for _, id := range ctx.State.SpotRequestIDs {
				Expect(fake.SpotRequests[id].State).NotTo(Equal(types.SpotInstanceStateOpen))
			}
		})

		It("keeps instances and the group when termination is declined", func() {
			services.err = errors.New("install failed")
			ctx := newContext(context.Background(), "test", 1)
			var prompts []string
			ctx.Confirm = func(_ context.Context, prompt string) (bool, error) {
				prompts = append(prompts, prompt)
				return false, nil
			}

			_, err := launch(ctx)
			Expect(err).To(MatchError(services.err))
			Expect(err).To(MatchError(provisioning.ErrRollbackDeclined))
			Expect(prompts).To(HaveLen(1))
			Expect(fake.LiveInstanceIDs()).To(HaveLen(2))
			Expect(fake.GroupByName(naming.ClusterGroup("test"))).NotTo(BeNil())
		})

		It("unwinds on a detached context after cancellation", func() {
			parent, cancel := context.WithCancel(context.Background())
			ctx := newContext(parent, "test", 1)
			ctx.Confirm = func(rctx context.Context, _ string) (bool, error) {
				Expect(rctx.Err()).NotTo(HaveOccurred())
				return true, nil
			}
			svc := &cancellingServices{cancel: cancel}

			_, err := NewLauncher(svc, WithAddressResolver(resolver)).Launch(ctx)
			Expect(err).To(MatchError(context.Canceled))
			Expect(fake.LiveInstanceIDs()).To(BeEmpty())
			Expect(fake.GroupByName(naming.ClusterGroup("test"))).To(BeNil())
		})

		It("does nothing when cancelled before the first phase", func() {
			parent, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := launch(newContext(parent, "test", 1))
			Expect(err).To(MatchError(context.Canceled))
			Expect(fake.MutatingCalls()).To(BeZero())
		})
	})
})

// cancellingServices simulates an interrupt arriving while services are
// being provisioned.
type cancellingServices struct {
	cancel context.CancelFunc
}

func (s *cancellingServices) Provision(ctx context.Context, _ *cluster.Cluster) error {
	s.cancel()
	<-ctx.Done()
	return ctx.Err()
}
