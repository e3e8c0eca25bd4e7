package modules

import (
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/application"
)

var BuiltInModules = []application.Module{
	messaging.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
