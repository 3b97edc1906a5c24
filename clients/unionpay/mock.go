package unionpay

import (
	"context"

	"github.com/unionpay-go/unionpay/form"
)

// MockClient is a Client whose behavior is supplied per method, unset
// methods succeed with zero values
type MockClient struct {
	FnCreateWebOrder     func(ctx context.Context, req *CreateOrderRequest) (*WebOrder, error)
	FnCreateAppOrder     func(ctx context.Context, req *CreateOrderRequest) (*AppOrder, error)
	FnQueryOrder         func(ctx context.Context, req *QueryOrderRequest) (*Outcome, error)
	FnCancelOrder        func(ctx context.Context, req *BackTransactionRequest) (*Outcome, error)
	FnRefundOrder        func(ctx context.Context, req *BackTransactionRequest) (*Outcome, error)
	FnVerifyNotification func(ctx context.Context, body string) (form.Form, error)
}

func (c *MockClient) CreateWebOrder(ctx context.Context, req *CreateOrderRequest) (*WebOrder, error) {
	if c.FnCreateWebOrder == nil {
		return &WebOrder{}, nil
	}
	return c.FnCreateWebOrder(ctx, req)
}

func (c *MockClient) CreateAppOrder(ctx context.Context, req *CreateOrderRequest) (*AppOrder, error) {
	if c.FnCreateAppOrder == nil {
		return &AppOrder{}, nil
	}
	return c.FnCreateAppOrder(ctx, req)
}

func (c *MockClient) QueryOrder(ctx context.Context, req *QueryOrderRequest) (*Outcome, error) {
	if c.FnQueryOrder == nil {
		return &Outcome{}, nil
	}
	return c.FnQueryOrder(ctx, req)
}

func (c *MockClient) CancelOrder(ctx context.Context, req *BackTransactionRequest) (*Outcome, error) {
	if c.FnCancelOrder == nil {
		return &Outcome{}, nil
	}
	return c.FnCancelOrder(ctx, req)
}

func (c *MockClient) RefundOrder(ctx context.Context, req *BackTransactionRequest) (*Outcome, error) {
	if c.FnRefundOrder == nil {
		return &Outcome{}, nil
	}
	return c.FnRefundOrder(ctx, req)
}

func (c *MockClient) VerifyNotification(ctx context.Context, body string) (form.Form, error) {
	if c.FnVerifyNotification == nil {
		return form.New(), nil
	}
	return c.FnVerifyNotification(ctx, body)
}
