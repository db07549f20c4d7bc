package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Settlements.WithLabelValues("ok").Inc()
	m.Payments.WithLabelValues("PAID").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Settlements.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Payments.WithLabelValues("PAID")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
