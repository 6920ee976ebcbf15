package endpoint

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/pipeflow/flow"
)

// Stages returns a handler that describes the computation graph and the
// parameters the calculator runs with.
func Stages(calc *flow.Calculator) gin.HandlerFunc {
	return func(c *gin.Context) {
		RespondOK(c, gin.H{
			"stages": calc.Stages(),
			"levels": calc.Levels(),
			"params": calc.Params(),
		})
	}
}
