package auth

import "context"

// Notifier delivers confirmation codes to the user out-of-band. The
// transport (SMTP, SMS, queue) is the embedding application's concern;
// failure must propagate so RequestCode can surface a delivery error.
type Notifier interface {
	Send(ctx context.Context, address, subject, body string) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, address, subject, body string) error

// Send implements Notifier.
func (f NotifierFunc) Send(ctx context.Context, address, subject, body string) error {
	if f == nil {
		return nil
	}
	return f(ctx, address, subject, body)
}

type logNotifier struct {
	logger Logger
}

// NewLogNotifier returns a Notifier that writes the message to the
// logger. Useful for development and as a safe default.
func NewLogNotifier(logger Logger) Notifier {
	if logger == nil {
		logger = defLogger{}
	}
	return logNotifier{logger: logger}
}

func (n logNotifier) Send(_ context.Context, address, subject, body string) error {
	n.logger.Info("====== SENDING EMAIL NOTIFICATION =======")
	n.logger.Info("to: %s", address)
	n.logger.Info("subject: %s", subject)
	n.logger.Info("body: %s", body)
	return nil
}
