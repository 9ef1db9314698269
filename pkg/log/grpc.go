package log

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Metadata keys read by the interceptors. Callers inside the job board
// forward the acting user and conversation so server logs can be joined
// with the websocket side.
const (
	metadataKeyRequestID      = "x-request-id"
	metadataKeyUserID         = "x-user-id"
	metadataKeyConversationID = "x-conversation-id"
)

// UnaryServerInterceptor injects a call-scoped logger into the context and
// logs one line per completed call.
func UnaryServerInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		child := callLogger(ctx, logger, info.FullMethod)

		resp, err := handler(WithLogger(ctx, child), req)

		logCompleted(child, start, err, "unary call completed")
		return resp, err
	}
}

// StreamServerInterceptor is UnaryServerInterceptor for streams.
func StreamServerInterceptor(logger zerolog.Logger) grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		start := time.Now()
		child := callLogger(ss.Context(), logger, info.FullMethod)

		err := handler(srv, &wrappedStream{
			ServerStream: ss,
			ctx:          WithLogger(ss.Context(), child),
		})

		logCompleted(child, start, err, "stream call completed")
		return err
	}
}

func callLogger(ctx context.Context, logger zerolog.Logger, method string) zerolog.Logger {
	md, _ := metadata.FromIncomingContext(ctx)

	reqID := firstValue(md, metadataKeyRequestID)
	if reqID == "" {
		reqID = uuid.New().String()
	}

	lc := logger.With().
		Str(FieldRequestID, reqID).
		Str(FieldGRPCMethod, method)
	if userID := firstValue(md, metadataKeyUserID); userID != "" {
		lc = lc.Str(FieldUserID, userID)
	}
	if conversationID := firstValue(md, metadataKeyConversationID); conversationID != "" {
		lc = lc.Str(FieldConversationID, conversationID)
	}
	return lc.Logger()
}

func logCompleted(l zerolog.Logger, start time.Time, err error, msg string) {
	code := status.Code(err)
	evt := l.Debug()
	if err != nil {
		evt = l.Warn()
	}
	evt.Str(FieldGRPCCode, code.String()).
		Float64(FieldLatency, float64(time.Since(start).Milliseconds())).
		Err(err).
		Msg(msg)
}

// wrappedStream overrides Context() to carry the call logger.
type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}

func firstValue(md metadata.MD, key string) string {
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
