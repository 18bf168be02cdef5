package controlplane

import (
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rtsyn-dev/rtsyn/internal/engine"
)

func (s *Server) registerRoutes(r *gin.Engine) {
	api := r.Group("/")
	api.Use(s.bearerAuth())

	api.POST("/workspace", s.handleUpdateWorkspace)
	api.GET("/workspace", s.handleGetWorkspace)
	api.POST("/plugins/:id/running", s.handleSetRunning)
	api.POST("/plugins/running", s.handleSetAllRunning)
	api.POST("/plugins/:id/restart", s.handleRestartPlugin)
	api.GET("/plugins/:id/variables/:name", s.handleGetVariable)
	api.POST("/plugins/:id/variables/:name", s.handleSetVariable)
	api.POST("/plugins/metadata", s.handleQueryMetadata)
	api.POST("/plugins/behavior", s.handleQueryBehavior)
	api.GET("/snapshot/stream", s.handleSnapshotStream)
	api.GET("/ws/control", s.handleWebsocket)
}

func (s *Server) handleUpdateWorkspace(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if err := ValidateWorkspaceDocument(raw); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	var dto workspaceDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	replyCh := make(chan engine.Reply, 1)
	_, err = send[any](c.Request.Context(), s.control, engine.UpdateWorkspaceMsg{Workspace: fromWorkspaceDTO(dto), Reply: replyCh}, replyCh)
	if err != nil {
		c.JSON(422, gin.H{"error": err.Error()})
		return
	}
	c.Status(204)
}

func (s *Server) handleGetWorkspace(c *gin.Context) {
	replyCh := make(chan engine.Reply, 1)
	ws, err := send[engine.Workspace](c.Request.Context(), s.control, engine.QueryWorkspaceMsg{Reply: replyCh}, replyCh)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, toWorkspaceDTO(ws))
}

func (s *Server) pluginIDParam(c *gin.Context) (engine.PluginID, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid plugin id"})
		return 0, false
	}
	return engine.PluginID(n), true
}

func (s *Server) handleSetRunning(c *gin.Context) {
	id, ok := s.pluginIDParam(c)
	if !ok {
		return
	}
	var body struct {
		Running bool `json:"running"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	replyCh := make(chan engine.Reply, 1)
	var msg engine.ControlMessage
	if body.Running {
		msg = engine.StartPluginMsg{ID: id, Reply: replyCh}
	} else {
		msg = engine.StopPluginMsg{ID: id, Reply: replyCh}
	}
	if _, err := send[any](c.Request.Context(), s.control, msg, replyCh); err != nil {
		c.JSON(422, gin.H{"error": err.Error()})
		return
	}
	c.Status(204)
}

func (s *Server) handleSetAllRunning(c *gin.Context) {
	var body struct {
		Running bool `json:"running"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	replyCh := make(chan engine.Reply, 1)
	if _, err := send[any](c.Request.Context(), s.control, engine.SetAllPluginsRunningMsg{Running: body.Running, Reply: replyCh}, replyCh); err != nil {
		c.JSON(422, gin.H{"error": err.Error()})
		return
	}
	c.Status(204)
}

func (s *Server) handleRestartPlugin(c *gin.Context) {
	id, ok := s.pluginIDParam(c)
	if !ok {
		return
	}
	replyCh := make(chan engine.Reply, 1)
	if _, err := send[any](c.Request.Context(), s.control, engine.RestartPluginMsg{ID: id, Reply: replyCh}, replyCh); err != nil {
		c.JSON(422, gin.H{"error": err.Error()})
		return
	}
	c.Status(204)
}

func (s *Server) handleGetVariable(c *gin.Context) {
	id, ok := s.pluginIDParam(c)
	if !ok {
		return
	}
	name := c.Param("name")
	replyCh := make(chan engine.Reply, 1)
	v, err := send[any](c.Request.Context(), s.control, engine.GetVariableMsg{ID: id, Name: name, Reply: replyCh}, replyCh)
	if err != nil {
		c.JSON(422, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"name": name, "value": v})
}

func (s *Server) handleSetVariable(c *gin.Context) {
	id, ok := s.pluginIDParam(c)
	if !ok {
		return
	}
	name := c.Param("name")
	var body struct {
		Value any `json:"value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	replyCh := make(chan engine.Reply, 1)
	if _, err := send[any](c.Request.Context(), s.control, engine.SetVariableMsg{ID: id, Name: name, Value: body.Value, Reply: replyCh}, replyCh); err != nil {
		c.JSON(422, gin.H{"error": err.Error()})
		return
	}
	c.Status(204)
}

func (s *Server) handleQueryMetadata(c *gin.Context) {
	var body struct {
		Kind string `json:"kind"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	replyCh := make(chan engine.Reply, 1)
	md, err := send[any](c.Request.Context(), s.control, engine.QueryPluginMetadataMsg{Kind: body.Kind, Reply: replyCh}, replyCh)
	if err != nil {
		c.JSON(422, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"metadata": md})
}

func (s *Server) handleQueryBehavior(c *gin.Context) {
	var body struct {
		Kind        string `json:"kind"`
		LibraryPath string `json:"library_path"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	replyCh := make(chan engine.Reply, 1)
	b, err := send[any](c.Request.Context(), s.control, engine.QueryPluginBehaviorMsg{Kind: body.Kind, LibraryPath: body.LibraryPath, Reply: replyCh}, replyCh)
	if err != nil {
		c.JSON(422, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"behavior": b})
}
