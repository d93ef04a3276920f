package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// BattleServiceName is the fully qualified gRPC service name.
const BattleServiceName = "battle.v1.Battle"

// BattleServer is the gRPC surface of the battle server. Requests and responses are
// structpb.Struct messages so clients need no generated code.
type BattleServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RegisterDeck(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartMatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitFirstTurnChoice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckFirstTurnWinner(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EndTurn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeployUnit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AttachEnergy(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AttachFieldEnergy(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UseTargetDeathItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UseCatastrophicDamageItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UseSacrificeMultiTargetItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UseEnergyRemovalItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UseFieldEnergyBoostItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetReplay(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structMethod func(BattleServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call structMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BattleServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + BattleServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BattleServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// BattleServiceDesc describes the service for grpc.Server.RegisterService.
var BattleServiceDesc = grpc.ServiceDesc{
	ServiceName: BattleServiceName,
	HandlerType: (*BattleServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Register", BattleServer.Register),
		unaryMethod("Login", BattleServer.Login),
		unaryMethod("Logout", BattleServer.Logout),
		unaryMethod("RegisterDeck", BattleServer.RegisterDeck),
		unaryMethod("StartMatch", BattleServer.StartMatch),
		unaryMethod("SubmitFirstTurnChoice", BattleServer.SubmitFirstTurnChoice),
		unaryMethod("CheckFirstTurnWinner", BattleServer.CheckFirstTurnWinner),
		unaryMethod("EndTurn", BattleServer.EndTurn),
		unaryMethod("DeployUnit", BattleServer.DeployUnit),
		unaryMethod("AttachEnergy", BattleServer.AttachEnergy),
		unaryMethod("AttachFieldEnergy", BattleServer.AttachFieldEnergy),
		unaryMethod("UseTargetDeathItem", BattleServer.UseTargetDeathItem),
		unaryMethod("UseCatastrophicDamageItem", BattleServer.UseCatastrophicDamageItem),
		unaryMethod("UseSacrificeMultiTargetItem", BattleServer.UseSacrificeMultiTargetItem),
		unaryMethod("UseEnergyRemovalItem", BattleServer.UseEnergyRemovalItem),
		unaryMethod("UseFieldEnergyBoostItem", BattleServer.UseFieldEnergyBoostItem),
		unaryMethod("GetReplay", BattleServer.GetReplay),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "battle/v1/battle.proto",
}

// RegisterBattleServer attaches srv to a gRPC server.
func RegisterBattleServer(s grpc.ServiceRegistrar, srv BattleServer) {
	s.RegisterService(&BattleServiceDesc, srv)
}

// BattleClient calls the battle service.
type BattleClient struct {
	cc grpc.ClientConnInterface
}

// NewBattleClient wraps a client connection.
func NewBattleClient(cc grpc.ClientConnInterface) *BattleClient {
	return &BattleClient{cc: cc}
}

// Call invokes a method by name with a plain map request.
func (c *BattleClient) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+BattleServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}
