package notifier

import (
	"context"
	"errors"
)

type fakeProvider struct {
	name       string
	configured bool
	sendErr    error
	sent       []*EmailRequest
}

func (f *fakeProvider) Name() string       { return f.name }
func (f *fakeProvider) IsConfigured() bool { return f.configured }

func (f *fakeProvider) Send(ctx context.Context, req *EmailRequest) error {
	f.sent = append(f.sent, req)
	return f.sendErr
}

type fakeNotifier struct {
	name   string
	err    error
	alerts []*Alert
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Notify(ctx context.Context, alert *Alert) error {
	f.alerts = append(f.alerts, alert)
	return f.err
}

var errSend = errors.New("send failed")
