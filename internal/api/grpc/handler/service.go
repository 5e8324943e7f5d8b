package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "sportify.Sportify"

// SportifyServer is the server API of the sportify.Sportify service. Every
// method exchanges google.protobuf.Struct messages.
type SportifyServer interface {
	ListEvents(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRegisteredEvents(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCreatedEvents(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEvent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateEvent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateEvent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteEvent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RegisterForEvent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UnregisterFromEvent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IsRegistered(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterSportifyServer registers srv on s.
func RegisterSportifyServer(s grpc.ServiceRegistrar, srv SportifyServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type unaryMethod func(SportifyServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// ServiceDesc describes sportify.Sportify for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SportifyServer)(nil),
	Methods: []grpc.MethodDesc{
		method("ListEvents", SportifyServer.ListEvents),
		method("ListRegisteredEvents", SportifyServer.ListRegisteredEvents),
		method("ListCreatedEvents", SportifyServer.ListCreatedEvents),
		method("GetEvent", SportifyServer.GetEvent),
		method("CreateEvent", SportifyServer.CreateEvent),
		method("UpdateEvent", SportifyServer.UpdateEvent),
		method("DeleteEvent", SportifyServer.DeleteEvent),
		method("RegisterForEvent", SportifyServer.RegisterForEvent),
		method("UnregisterFromEvent", SportifyServer.UnregisterFromEvent),
		method("IsRegistered", SportifyServer.IsRegistered),
		method("CreateProfile", SportifyServer.CreateProfile),
		method("GetProfile", SportifyServer.GetProfile),
		method("UpdateProfile", SportifyServer.UpdateProfile),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sportify.proto",
}

// FullMethod returns the gRPC path of a sportify.Sportify method.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func method(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := FullMethod(name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SportifyServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(SportifyServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client calls sportify.Sportify methods over a client connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes the named method with in, which may be nil.
func (c *Client) Call(ctx context.Context, name string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
