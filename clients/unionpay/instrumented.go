package unionpay

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/unionpay-go/unionpay/form"
)

// clientDurations is package level so constructing a second client does
// not re-register the collector
var clientDurations = promauto.NewSummaryVec(prometheus.SummaryOpts{
	Name:       "client_duration_seconds",
	Help:       "client runtime duration and result",
	MaxAge:     time.Minute,
	Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
},
	[]string{"instance_name", "method", "result"},
)

// InstrumentedClient decorates a Client with a prometheus summary metric
type InstrumentedClient struct {
	name string
	cl   Client
	vec  *prometheus.SummaryVec
}

// newInstrumentedClient returns an instance of the Client decorated with prometheus summary metric.
func newInstrumentedClient(name string, cl Client) *InstrumentedClient {
	return &InstrumentedClient{
		name: name,
		cl:   cl,
		vec:  clientDurations,
	}
}

func (_d *InstrumentedClient) CreateWebOrder(ctx context.Context, req *CreateOrderRequest) (wp1 *WebOrder, err error) {
	_since := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}

		_d.vec.WithLabelValues(_d.name, "CreateWebOrder", result).Observe(time.Since(_since).Seconds())
	}()

	return _d.cl.CreateWebOrder(ctx, req)
}

func (_d *InstrumentedClient) CreateAppOrder(ctx context.Context, req *CreateOrderRequest) (ap1 *AppOrder, err error) {
	_since := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}

		_d.vec.WithLabelValues(_d.name, "CreateAppOrder", result).Observe(time.Since(_since).Seconds())
	}()

	return _d.cl.CreateAppOrder(ctx, req)
}

func (_d *InstrumentedClient) QueryOrder(ctx context.Context, req *QueryOrderRequest) (op1 *Outcome, err error) {
	_since := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}

		_d.vec.WithLabelValues(_d.name, "QueryOrder", result).Observe(time.Since(_since).Seconds())
	}()

	return _d.cl.QueryOrder(ctx, req)
}

func (_d *InstrumentedClient) CancelOrder(ctx context.Context, req *BackTransactionRequest) (op1 *Outcome, err error) {
	_since := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}

		_d.vec.WithLabelValues(_d.name, "CancelOrder", result).Observe(time.Since(_since).Seconds())
	}()

	return _d.cl.CancelOrder(ctx, req)
}

func (_d *InstrumentedClient) RefundOrder(ctx context.Context, req *BackTransactionRequest) (op1 *Outcome, err error) {
	_since := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}

		_d.vec.WithLabelValues(_d.name, "RefundOrder", result).Observe(time.Since(_since).Seconds())
	}()

	return _d.cl.RefundOrder(ctx, req)
}

func (_d *InstrumentedClient) VerifyNotification(ctx context.Context, body string) (fp1 form.Form, err error) {
	_since := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}

		_d.vec.WithLabelValues(_d.name, "VerifyNotification", result).Observe(time.Since(_since).Seconds())
	}()

	return _d.cl.VerifyNotification(ctx, body)
}
