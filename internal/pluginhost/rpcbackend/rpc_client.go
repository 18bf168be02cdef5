package rpcbackend

import "net/rpc"

// rpcClient adapts a *rpc.Client connected to a subprocess's rpcServer
// back into the Backend interface, so host-side code never has to know
// whether it is talking to an in-process instance or a subprocess one.
type rpcClient struct {
	client *rpc.Client
}

func (c *rpcClient) Construct() (bool, error) {
	var reply ConstructReply
	err := c.client.Call("Plugin.Construct", struct{}{}, &reply)
	return reply.OK, err
}

func (c *rpcClient) Destroy() error {
	return c.client.Call("Plugin.Destroy", struct{}{}, nil)
}

func (c *rpcClient) SetInput(name string, value float64) error {
	return c.client.Call("Plugin.SetInput", SetInputArgs{Name: name, Value: value}, nil)
}

func (c *rpcClient) SetInputByIndex(idx int, value float64) error {
	return c.client.Call("Plugin.SetInputByIndex", SetInputByIndexArgs{Index: idx, Value: value}, nil)
}

func (c *rpcClient) GetOutput(name string) (float64, error) {
	var reply Float64Reply
	err := c.client.Call("Plugin.GetOutput", GetOutputArgs{Name: name}, &reply)
	return reply.Value, err
}

func (c *rpcClient) GetOutputByIndex(idx int) (float64, error) {
	var reply Float64Reply
	err := c.client.Call("Plugin.GetOutputByIndex", GetOutputByIndexArgs{Index: idx}, &reply)
	return reply.Value, err
}

func (c *rpcClient) Process(tick uint64, periodSeconds float64) error {
	return c.client.Call("Plugin.Process", ProcessArgs{Tick: tick, PeriodSeconds: periodSeconds}, nil)
}

func (c *rpcClient) InputsJSON() ([]byte, error) {
	var reply BytesReply
	err := c.client.Call("Plugin.InputsJSON", struct{}{}, &reply)
	return reply.Value, err
}

func (c *rpcClient) OutputsJSON() ([]byte, error) {
	var reply BytesReply
	err := c.client.Call("Plugin.OutputsJSON", struct{}{}, &reply)
	return reply.Value, err
}

func (c *rpcClient) MetaJSON() ([]byte, error) {
	var reply BytesReply
	err := c.client.Call("Plugin.MetaJSON", struct{}{}, &reply)
	return reply.Value, err
}

func (c *rpcClient) BehaviorJSON() ([]byte, error) {
	var reply BytesReply
	err := c.client.Call("Plugin.BehaviorJSON", struct{}{}, &reply)
	return reply.Value, err
}

func (c *rpcClient) DisplaySchemaJSON() ([]byte, error) {
	var reply BytesReply
	err := c.client.Call("Plugin.DisplaySchemaJSON", struct{}{}, &reply)
	return reply.Value, err
}

func (c *rpcClient) UISchemaJSON() ([]byte, error) {
	var reply BytesReply
	err := c.client.Call("Plugin.UISchemaJSON", struct{}{}, &reply)
	return reply.Value, err
}

func (c *rpcClient) SetConfig(patch []byte, periodSeconds float64, maxIntegrationSteps int) error {
	return c.client.Call("Plugin.SetConfig", SetConfigArgs{Patch: patch, PeriodSeconds: periodSeconds, MaxIntegrationSteps: maxIntegrationSteps}, nil)
}
