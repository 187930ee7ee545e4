package server

import "github.com/gin-gonic/gin"

type SchemaRoutes struct {
	handler *SchemaHandler
}

func NewSchemaRoutes(handler *SchemaHandler) *SchemaRoutes {
	return &SchemaRoutes{handler: handler}
}

func (r *SchemaRoutes) RegisterRoutes(router *gin.RouterGroup) {
	h := r.handler
	router.GET("/database", h.Database)
	router.GET("/model", h.Model)
	router.GET("/dependencies", h.Dependencies)

	tables := router.Group("/tables")
	{
		tables.GET("", h.Tables)
		tables.GET("/:schema/:name/columns", h.TableColumns)
		tables.GET("/:schema/:name/indexes", h.TableIndexes)
		tables.GET("/:schema/:name/keys", h.TableKeys)
		tables.GET("/:schema/:name/primary-key", h.TablePrimaryKey)
		tables.GET("/:schema/:name/properties", h.Properties("table"))
		tables.PUT("/:schema/:name/properties", h.SetProperties("table"))
	}

	views := router.Group("/views")
	{
		views.GET("", h.Views)
		views.GET("/:schema/:name/columns", h.ViewColumns)
		views.GET("/:schema/:name/text", h.ViewText)
		views.GET("/:schema/:name/properties", h.Properties("view"))
		views.PUT("/:schema/:name/properties", h.SetProperties("view"))
	}

	commands := router.Group("/commands")
	{
		commands.GET("", h.Commands)
		commands.GET("/:schema/:name/parameters", h.CommandParameters)
		commands.GET("/:schema/:name/text", h.CommandText)
		commands.GET("/:schema/:name/properties", h.Properties("command"))
		commands.PUT("/:schema/:name/properties", h.SetProperties("command"))
	}
}
