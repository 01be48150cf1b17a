package specialist

import (
	contractx "github.com/tanpawarit/chative-commerce-orchestrator/agent/contract"
	statex "github.com/tanpawarit/chative-commerce-orchestrator/agent/state"
)

type registryImpl struct {
	product contractx.Planner
	order   contractx.Planner
}

func (r *registryImpl) Product() contractx.Planner {
	return r.product
}

func (r *registryImpl) Order() contractx.Planner {
	return r.order
}

func (r *registryImpl) For(agent statex.AgentKind) (contractx.Planner, bool) {
	switch agent {
	case statex.AgentProduct:
		return r.product, r.product != nil
	case statex.AgentOrder:
		return r.order, r.order != nil
	default:
		return nil, false
	}
}

// NewRegistry wires the default product and order planners.
func NewRegistry() contractx.Registry {
	return &registryImpl{
		product: ProductPlanner{},
		order:   OrderPlanner{},
	}
}

// NewRegistryWith lets callers swap either planner; nil keeps the default.
func NewRegistryWith(product, order contractx.Planner) contractx.Registry {
	if product == nil {
		product = ProductPlanner{}
	}
	if order == nil {
		order = OrderPlanner{}
	}
	return &registryImpl{product: product, order: order}
}
