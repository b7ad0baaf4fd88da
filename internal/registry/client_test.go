package registry

import "testing"

func TestParseConnectionInfoExtractsIPv4Port(t *testing.T) {
	info, ok := ParseConnectionInfo("tcp://203.0.113.5:8091/some/path")
	if !ok {
		t.Fatal("expected address to parse")
	}
	if info.IP != "203.0.113.5" || info.Port != 8091 {
		t.Errorf("expected 203.0.113.5:8091, got %s:%d", info.IP, info.Port)
	}
}

func TestParseConnectionInfoAbsentOnNoMatch(t *testing.T) {
	if _, ok := ParseConnectionInfo("not-an-address"); ok {
		t.Error("expected unparseable address to return ok=false")
	}
}

func TestClassifyRoleMinerWhenBothZero(t *testing.T) {
	if ClassifyRole(0, 0) != RoleMiner {
		t.Error("expected incentive=dividends=0 to classify as miner")
	}
}

func TestClassifyRoleMinerWhenIncentiveExceedsDividends(t *testing.T) {
	if ClassifyRole(10, 3) != RoleMiner {
		t.Error("expected incentive > dividends to classify as miner")
	}
}

func TestClassifyRoleValidatorWhenDividendDominant(t *testing.T) {
	if ClassifyRole(3, 10) != RoleValidator {
		t.Error("expected dividends > incentive to classify as validator")
	}
	if ClassifyRole(0, 1) != RoleValidator {
		t.Error("expected incentive=0, dividends>0 to classify as validator")
	}
}

func TestListValidatorsAndListMinersPartitionModules(t *testing.T) {
	chain := NewStaticChain([]ModuleInfo{
		{SS58Address: "miner-1", Incentive: 5, Dividends: 1},
		{SS58Address: "validator-1", Incentive: 1, Dividends: 5},
	})

	validators, err := ListValidators(chain, 0)
	if err != nil {
		t.Fatalf("ListValidators failed: %v", err)
	}
	if len(validators) != 1 || validators[0].SS58Address != "validator-1" {
		t.Errorf("expected exactly validator-1, got %v", validators)
	}

	miners, err := ListMiners(chain, 0)
	if err != nil {
		t.Fatalf("ListMiners failed: %v", err)
	}
	if len(miners) != 1 || miners[0].SS58Address != "miner-1" {
		t.Errorf("expected exactly miner-1, got %v", miners)
	}
}

func TestCachingClientReusesLastGoodSnapshotOnFailure(t *testing.T) {
	inner := NewStaticChain([]ModuleInfo{{SS58Address: "a"}})
	cache := NewCachingClient(inner)

	if _, err := cache.ListModules(0); err != nil {
		t.Fatalf("priming cache failed: %v", err)
	}

	inner.SetFailing(true)
	modules, err := cache.ListModules(0)
	if err != nil {
		t.Fatalf("expected cached snapshot to be served despite failure: %v", err)
	}
	if len(modules) != 1 || modules[0].SS58Address != "a" {
		t.Errorf("expected last-good snapshot [a], got %v", modules)
	}
}

func TestCachingClientPropagatesFailureWithNoPriorSnapshot(t *testing.T) {
	inner := NewStaticChain(nil)
	inner.SetFailing(true)
	cache := NewCachingClient(inner)

	if _, err := cache.ListModules(0); err == nil {
		t.Error("expected failure to propagate when no snapshot has ever succeeded")
	}
}
