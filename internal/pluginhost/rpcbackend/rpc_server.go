package rpcbackend

// rpcServer adapts a Backend to net/rpc's exported-method convention:
// every method takes exactly one argument struct and one reply
// pointer. This type is only ever instantiated inside the plugin
// subprocess, by InstancePlugin.Server.
type rpcServer struct {
	impl Backend
}

type ConstructReply struct {
	OK bool
}

func (s *rpcServer) Construct(_ struct{}, reply *ConstructReply) error {
	ok, err := s.impl.Construct()
	reply.OK = ok
	return err
}

func (s *rpcServer) Destroy(_ struct{}, _ *struct{}) error {
	return s.impl.Destroy()
}

type SetInputArgs struct {
	Name  string
	Value float64
}

func (s *rpcServer) SetInput(args SetInputArgs, _ *struct{}) error {
	return s.impl.SetInput(args.Name, args.Value)
}

type SetInputByIndexArgs struct {
	Index int
	Value float64
}

func (s *rpcServer) SetInputByIndex(args SetInputByIndexArgs, _ *struct{}) error {
	return s.impl.SetInputByIndex(args.Index, args.Value)
}

type GetOutputArgs struct {
	Name string
}

type Float64Reply struct {
	Value float64
}

func (s *rpcServer) GetOutput(args GetOutputArgs, reply *Float64Reply) error {
	v, err := s.impl.GetOutput(args.Name)
	reply.Value = v
	return err
}

type GetOutputByIndexArgs struct {
	Index int
}

func (s *rpcServer) GetOutputByIndex(args GetOutputByIndexArgs, reply *Float64Reply) error {
	v, err := s.impl.GetOutputByIndex(args.Index)
	reply.Value = v
	return err
}

type ProcessArgs struct {
	Tick          uint64
	PeriodSeconds float64
}

func (s *rpcServer) Process(args ProcessArgs, _ *struct{}) error {
	return s.impl.Process(args.Tick, args.PeriodSeconds)
}

type BytesReply struct {
	Value []byte
}

func (s *rpcServer) InputsJSON(_ struct{}, reply *BytesReply) error {
	v, err := s.impl.InputsJSON()
	reply.Value = v
	return err
}

func (s *rpcServer) OutputsJSON(_ struct{}, reply *BytesReply) error {
	v, err := s.impl.OutputsJSON()
	reply.Value = v
	return err
}

func (s *rpcServer) MetaJSON(_ struct{}, reply *BytesReply) error {
	v, err := s.impl.MetaJSON()
	reply.Value = v
	return err
}

func (s *rpcServer) BehaviorJSON(_ struct{}, reply *BytesReply) error {
	v, err := s.impl.BehaviorJSON()
	reply.Value = v
	return err
}

func (s *rpcServer) DisplaySchemaJSON(_ struct{}, reply *BytesReply) error {
	v, err := s.impl.DisplaySchemaJSON()
	reply.Value = v
	return err
}

func (s *rpcServer) UISchemaJSON(_ struct{}, reply *BytesReply) error {
	v, err := s.impl.UISchemaJSON()
	reply.Value = v
	return err
}

type SetConfigArgs struct {
	Patch               []byte
	PeriodSeconds       float64
	MaxIntegrationSteps int
}

func (s *rpcServer) SetConfig(args SetConfigArgs, _ *struct{}) error {
	return s.impl.SetConfig(args.Patch, args.PeriodSeconds, args.MaxIntegrationSteps)
}
