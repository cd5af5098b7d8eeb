package notif

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"gochat/internal/common"
	"gochat/internal/logger"
)

const (
	notifierServiceName = "gochat.notify.v1.ChangeNotifier"
	publishMethod       = "/" + notifierServiceName + "/Publish"
	watchMethod         = "/" + notifierServiceName + "/Watch"

	// Sent as a response header once the server-side watcher is registered.
	watchReadyKey = "gochat-watch-ready"
)

// NotifierServer exposes a Hub over gRPC. Signals carry no payload: the topic is the request,
// every stream message is an Empty.
type NotifierServer interface {
	Publish(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	Watch(*wrapperspb.StringValue, grpc.ServerStream) error
}

type notifierServer struct {
	hub *Hub
}

func NewNotifierServer(hub *Hub) NotifierServer {
	return &notifierServer{hub: hub}
}

func (s *notifierServer) Publish(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	topic := common.Topic(req.GetValue())
	if !topic.IsValid() {
		return nil, status.Errorf(codes.InvalidArgument, "unknown topic %q", req.GetValue())
	}
	s.hub.Publish(topic)
	return &emptypb.Empty{}, nil
}

func (s *notifierServer) Watch(req *wrapperspb.StringValue, stream grpc.ServerStream) error {
	topic := common.Topic(req.GetValue())
	if !topic.IsValid() {
		return status.Errorf(codes.InvalidArgument, "unknown topic %q", req.GetValue())
	}

	ctx := stream.Context()
	signals, err := s.hub.Watch(ctx, topic)
	if err != nil {
		return status.Error(codes.Unavailable, err.Error())
	}
	if err := stream.SendHeader(metadata.Pairs(watchReadyKey, "1")); err != nil {
		return err
	}

	if auth, err := common.AuthFromContext(ctx); err == nil {
		logger.Log.Debug("remote watch started",
			zap.String("topic", topic.String()),
			zap.String("profile_id", auth.ProfileID))
	}

	for range signals {
		if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
			return err
		}
	}
	return nil
}

var notifierServiceDesc = grpc.ServiceDesc{
	ServiceName: notifierServiceName,
	HandlerType: (*NotifierServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Publish",
			Handler:    publishHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "gochat/notify/v1/notifier.proto",
}

func RegisterNotifierServer(s grpc.ServiceRegistrar, srv NotifierServer) {
	s.RegisterService(&notifierServiceDesc, srv)
}

func publishHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NotifierServer).Publish(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: publishMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NotifierServer).Publish(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func watchHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(wrapperspb.StringValue)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(NotifierServer).Watch(in, stream)
}

// NewGRPCServer returns a server with the notifier registered behind bearer-token auth.
func NewGRPCServer(hub *Hub, signer *common.TokenSigner) *grpc.Server {
	server := grpc.NewServer(
		grpc.UnaryInterceptor(common.AuthInterceptor(signer)),
		grpc.StreamInterceptor(common.AuthStreamInterceptor(signer)),
	)
	RegisterNotifierServer(server, NewNotifierServer(hub))
	return server
}

// Client is a remote ChangeNotifier. Writers publish through an AsyncPublisher wrapping it.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Dial connects to a notifier service, authenticating every call with token.
func Dial(addr, token string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithPerRPCCredentials(common.BearerCredentials{Token: token, Insecure: true}),
	)
}

func (c *Client) PublishContext(ctx context.Context, topic common.Topic) error {
	return c.conn.Invoke(ctx, publishMethod, wrapperspb.String(topic.String()), &emptypb.Empty{})
}

// Watch returns once the server has registered the watcher, so no change published after
// Watch returns is missed. The channel closes when ctx ends or the stream breaks.
func (c *Client) Watch(ctx context.Context, topic common.Topic) (<-chan struct{}, error) {
	stream, err := c.conn.NewStream(ctx, &notifierServiceDesc.Streams[0], watchMethod)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(wrapperspb.String(topic.String())); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	md, err := stream.Header()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if len(md.Get(watchReadyKey)) == 0 {
		// The server ended the call without registering; RecvMsg yields its status.
		if err := stream.RecvMsg(&emptypb.Empty{}); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, errors.New("watch was not acknowledged")
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for {
			var signal emptypb.Empty
			if err := stream.RecvMsg(&signal); err != nil {
				if !errors.Is(err, io.EOF) && status.Code(err) != codes.Canceled && ctx.Err() == nil {
					logger.Log.Warn("watch stream ended", zap.String("topic", topic.String()), zap.Error(err))
				}
				return
			}
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()
	return out, nil
}
